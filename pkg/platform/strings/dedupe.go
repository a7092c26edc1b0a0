// Package strings provides string slice helpers.
package strings

import (
	"strings"
)

// DedupeBy keeps the first element for each distinct key(value). Elements
// whose key is empty are all kept, so the caller can report them. Elements
// are returned trimmed; order is preserved. Batch inputs use it with a canonicalization function so that
// "11.222.333/0001-81" and "11222333000181" collapse into one entry.
func DedupeBy(values []string, key func(string) string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		k := key(trimmed)
		if k == "" {
			result = append(result, trimmed)
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		result = append(result, trimmed)
	}

	return result
}
