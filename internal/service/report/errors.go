package report

import "errors"

var (
	// ErrNoData is returned when none of a campaign's sources produced rows.
	ErrNoData = errors.New("no report source returned data")

	// ErrSourceDisabled marks a source kind that is not configured on this
	// deployment.
	ErrSourceDisabled = errors.New("source is not configured")
)
