package datanorm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Dataset is a tabular report export: one header row plus positionally
// aligned data rows. Rows may be ragged; a missing trailing cell reads as "".
type Dataset struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// UnmarshalJSON accepts cells as JSON strings, numbers, booleans or null, so
// rows pulled from spreadsheet APIs decode without pre-stringifying. Numbers
// keep their literal text and null reads as "".
func (d *Dataset) UnmarshalJSON(data []byte) error {
	var raw struct {
		Headers []scalar   `json:"headers"`
		Rows    [][]scalar `json:"rows"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d.Headers = make([]string, len(raw.Headers))
	for i, h := range raw.Headers {
		d.Headers[i] = string(h)
	}
	d.Rows = make([][]string, len(raw.Rows))
	for i, row := range raw.Rows {
		d.Rows[i] = make([]string, len(row))
		for j, c := range row {
			d.Rows[i][j] = string(c)
		}
	}
	return nil
}

// scalar is a JSON cell value in its text form.
type scalar string

func (s *scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		return fmt.Errorf("empty cell")
	case bytes.Equal(data, []byte("null")):
		*s = ""
	case data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = scalar(v)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*s = scalar(data)
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		*s = scalar(data)
	default:
		return fmt.Errorf("cell %s is not a string, number or boolean", data)
	}
	return nil
}

// Width returns the number of header columns.
func (d *Dataset) Width() int { return len(d.Headers) }

// Len returns the number of data rows.
func (d *Dataset) Len() int { return len(d.Rows) }

// Cell returns the trimmed value at (row, col), or "" when out of range.
func (d *Dataset) Cell(row, col int) string {
	if row < 0 || row >= len(d.Rows) {
		return ""
	}
	return CellAt(d.Rows[row], col)
}

// CellAt returns the trimmed value of a row at col, or "" when the row is short.
func CellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// ColumnType is the inferred semantic type of a column.
type ColumnType string

const (
	TypeCurrency   ColumnType = "currency"
	TypePercentage ColumnType = "percentage"
	TypeNumber     ColumnType = "number"
	TypeText       ColumnType = "text"
	TypeDate       ColumnType = "date"
	TypeBoolean    ColumnType = "boolean"
	TypeUnknown    ColumnType = "unknown"
)

// IsNumeric reports whether values of this type are parsed as numbers.
func (t ColumnType) IsNumeric() bool {
	return t == TypeCurrency || t == TypePercentage || t == TypeNumber
}

// IsSummable reports whether values of this type can be totalled.
// Percentages are ratios already and are never summed.
func (t ColumnType) IsSummable() bool {
	return t == TypeCurrency || t == TypeNumber
}

// DetectedColumn is the classifier's view of one column.
type DetectedColumn struct {
	Name             string     `json:"name"`
	Key              string     `json:"key"`
	Index            int        `json:"index"`
	Type             ColumnType `json:"type"`
	Confidence       float64    `json:"confidence"`
	SampleValues     []string   `json:"sample_values"`
	UniqueValueCount int        `json:"unique_value_count"`
	NullCount        int        `json:"null_count"`
}
