package detection

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var csvHeader = []string{"name", "confidence", "xmin", "ymin", "xmax", "ymax"}

// WriteCSV writes the detail CSV: a header row then one row per detection.
func WriteCSV(w io.Writer, s Set) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, d := range s {
		record := []string{
			d.Name,
			formatFloat(d.Confidence),
			formatFloat(d.XMin),
			formatFloat(d.YMin),
			formatFloat(d.XMax),
			formatFloat(d.YMax),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a detail CSV, locating columns by header name.
func ReadCSV(r io.Reader) (Set, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}
	idx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range csvHeader {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("csv missing column %q", col)
		}
	}
	set := make(Set, 0, len(rows)-1)
	for line, row := range rows[1:] {
		cell := func(col string) string {
			i := idx[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		d := Detection{Name: cell("name")}
		fields := []struct {
			col string
			dst *float64
		}{
			{"confidence", &d.Confidence},
			{"xmin", &d.XMin},
			{"ymin", &d.YMin},
			{"xmax", &d.XMax},
			{"ymax", &d.YMax},
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(cell(f.col), 64)
			if err != nil {
				return nil, fmt.Errorf("csv row %d column %s: %w", line+2, f.col, err)
			}
			*f.dst = v
		}
		set = append(set, d)
	}
	return set, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
