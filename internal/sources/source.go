// Package sources fetches campaign report exports from files, object
// storage, SQL warehouses and the Google Analytics Reporting API, and
// collects them into a single dataset for the analytics engine.
package sources

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/ignite/marketpulse/internal/datanorm"
)

// Source produces one report export.
type Source interface {
	// Name identifies the source in statuses and warnings.
	Name() string
	// Fetch retrieves the export. Implementations honour ctx cancellation.
	Fetch(ctx context.Context) (*datanorm.Dataset, error)
}

// ErrUnsupportedFormat is returned for object keys or files that are neither
// CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format is the encoding of a file export.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatOf infers the format from a file name or object key.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	return "", ErrUnsupportedFormat
}
