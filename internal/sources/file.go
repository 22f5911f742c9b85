package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ignite/marketpulse/internal/datanorm"
)

type opener func() (io.ReadCloser, error)

func fileOpener(path string) opener {
	return func() (io.ReadCloser, error) { return os.Open(path) }
}

func bytesOpener(data []byte) opener {
	return func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil }
}

// CSVSource reads a CSV export.
type CSVSource struct {
	name string
	open opener
}

// NewCSVFile returns a source reading the CSV file at path.
func NewCSVFile(path string) *CSVSource {
	return &CSVSource{name: filepath.Base(path), open: fileOpener(path)}
}

// NewCSVBytes returns a source over an uploaded CSV body.
func NewCSVBytes(name string, data []byte) *CSVSource {
	return &CSVSource{name: name, open: bytesOpener(data)}
}

func (s *CSVSource) Name() string { return s.name }

func (s *CSVSource) Fetch(ctx context.Context) (*datanorm.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.name, err)
	}
	defer rc.Close()

	ds, err := datanorm.ReadCSV(rc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.name, err)
	}
	return ds, nil
}

// XLSXSource reads one sheet of an Excel workbook.
type XLSXSource struct {
	name  string
	sheet string
	open  opener
}

// NewXLSXFile returns a source reading sheet from the workbook at path. An
// empty sheet selects the first one.
func NewXLSXFile(path, sheet string) *XLSXSource {
	return &XLSXSource{name: filepath.Base(path), sheet: sheet, open: fileOpener(path)}
}

// NewXLSXBytes returns a source over an uploaded workbook.
func NewXLSXBytes(name string, data []byte, sheet string) *XLSXSource {
	return &XLSXSource{name: name, sheet: sheet, open: bytesOpener(data)}
}

func (s *XLSXSource) Name() string { return s.name }

func (s *XLSXSource) Fetch(ctx context.Context) (*datanorm.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.name, err)
	}
	defer rc.Close()

	ds, err := ReadXLSX(rc, s.sheet)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.name, err)
	}
	return ds, nil
}

// ReadXLSX decodes a workbook and returns sheet as a Dataset. An empty sheet
// name selects the first sheet.
func ReadXLSX(r io.Reader, sheet string) (*datanorm.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return datanorm.FromRows(rows), nil
}

// Decode reads an export in the given format.
func Decode(r io.Reader, format Format) (*datanorm.Dataset, error) {
	switch format {
	case FormatCSV:
		return datanorm.ReadCSV(r)
	case FormatXLSX:
		return ReadXLSX(r, "")
	}
	return nil, ErrUnsupportedFormat
}

// NewFileSource picks the CSV or XLSX reader by the file extension. sheet
// only applies to workbooks.
func NewFileSource(path, sheet string) (Source, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if format == FormatXLSX {
		return NewXLSXFile(path, sheet), nil
	}
	return NewCSVFile(path), nil
}
