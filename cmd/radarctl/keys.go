package main

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode"
)

// readKeys returns the first column of every non-blank row. A first row whose
// key holds no digit is treated as a header.
func readKeys(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	var keys []string
	first := true
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return keys, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}
		key := strings.TrimSpace(strings.TrimPrefix(row[0], "\ufeff"))
		if key == "" {
			continue
		}
		if first {
			first = false
			if !strings.ContainsFunc(key, unicode.IsDigit) {
				continue
			}
		}
		keys = append(keys, key)
	}
}
