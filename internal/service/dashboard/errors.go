package dashboard

import "errors"

// ErrInvalidPeriod is returned for malformed date filters or periods.
var ErrInvalidPeriod = errors.New("invalid period")
