package ubicquia

import "strings"

// exportRow builds a 32-field vendor payload with the given positions set.
func exportRow(values map[int]string) string {
	parts := make([]string, 32)
	for i := range parts {
		parts[i] = "-"
	}
	parts[0] = "0"
	for idx, v := range values {
		parts[idx] = v
	}
	return strings.Join(parts, ",")
}

// csvQuote wraps a payload the way the vendor export does.
func csvQuote(payload string) string {
	return `"` + strings.ReplaceAll(payload, `"`, `""`) + `"`
}
