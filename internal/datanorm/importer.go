package datanorm

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ReadCSV reads a CSV export into a Dataset. The first record is the header.
// Blank lines are skipped, rows may have any number of fields and a UTF-8
// BOM (Excel "CSV UTF-8" exports) is removed.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return &Dataset{Headers: []string{}, Rows: [][]string{}}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	ds := &Dataset{Headers: trimAll(header), Rows: [][]string{}}
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		if isBlankRow(row) {
			continue
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// FromRows builds a Dataset from a grid whose first row is the header, as
// returned by spreadsheet readers. Blank rows are dropped.
func FromRows(grid [][]string) *Dataset {
	ds := &Dataset{Headers: []string{}, Rows: [][]string{}}
	if len(grid) == 0 {
		return ds
	}
	ds.Headers = trimAll(grid[0])
	for _, row := range grid[1:] {
		if isBlankRow(row) {
			continue
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds
}

// Merge concatenates datasets into one. Headers are unioned by
// case-insensitive name in first-seen order and every row is realigned to
// the merged header, padding absent columns with "".
func Merge(datasets ...*Dataset) *Dataset {
	merged := &Dataset{Headers: []string{}, Rows: [][]string{}}
	index := make(map[string]int)

	for _, ds := range datasets {
		if ds == nil {
			continue
		}
		for _, k := range headerKeys(ds.Headers) {
			if _, ok := index[k.key]; !ok {
				index[k.key] = len(merged.Headers)
				merged.Headers = append(merged.Headers, k.name)
			}
		}
	}

	for _, ds := range datasets {
		if ds == nil {
			continue
		}
		keys := headerKeys(ds.Headers)
		positions := make([]int, len(keys))
		for i, k := range keys {
			positions[i] = index[k.key]
		}
		for _, row := range ds.Rows {
			out := make([]string, len(merged.Headers))
			for i, v := range row {
				if i < len(positions) {
					out[positions[i]] = v
				}
			}
			merged.Rows = append(merged.Rows, out)
		}
	}
	return merged
}

type headerKey struct {
	key  string
	name string
}

// headerKeys keys headers case-insensitively. Repeated names within one
// dataset stay distinct columns.
func headerKeys(headers []string) []headerKey {
	seen := make(map[string]int, len(headers))
	out := make([]headerKey, len(headers))
	for i, h := range headers {
		name := strings.TrimSpace(h)
		k := strings.ToLower(name)
		if n := seen[k]; n > 0 {
			seen[k] = n + 1
			k = fmt.Sprintf("%s#%d", k, n)
		} else {
			seen[k] = 1
		}
		out[i] = headerKey{key: k, name: name}
	}
	return out
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// stripBOM removes a leading UTF-8 byte order mark if present.
func stripBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, err := io.ReadFull(r, buf)
	if err != nil || n < 3 {
		return io.MultiReader(strings.NewReader(string(buf[:n])), r)
	}
	if buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return r
	}
	return io.MultiReader(strings.NewReader(string(buf[:n])), r)
}
