package ubicquia

import (
	"database/sql"
	"strings"
)

// absentTokens are the vendor placeholders for "no data". Matched before trimming.
var absentTokens = map[string]struct{}{
	"-":   {},
	"":    {},
	"N/A": {},
	"nan": {},
}

// Clean normalizes a raw export value. Placeholder tokens become an absent
// value, everything else is trimmed and kept, even when trimming leaves "".
func Clean(raw string) sql.NullString {
	if _, ok := absentTokens[raw]; ok {
		return sql.NullString{}
	}
	return sql.NullString{String: strings.TrimSpace(raw), Valid: true}
}
