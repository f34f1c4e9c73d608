package ubicquia

import (
	"regexp"
	"strings"
	"time"
)

type timestampLayout struct {
	layout string
	// upper folds am/pm markers so "2:30pm" parses like "2:30PM".
	upper bool
}

// Order matters: some inputs match more than one layout.
var timestampLayouts = []timestampLayout{
	{layout: "1/2/2006 3:04PM", upper: true},
	{layout: "2-1-2006 15:04"},
	{layout: "2006-1-2 15:04:05"},
	{layout: "1/2/2006 15:04"},
}

// clockPattern matches h:m or h:m:s with one- or two-digit parts.
var clockPattern = regexp.MustCompile(`\d{1,2}:\d{1,2}(?::\d{1,2})?`)

// padClock zero-pads single-digit clock parts; the minute and second layout
// elements only accept two digits.
func padClock(text string) string {
	return clockPattern.ReplaceAllStringFunc(text, func(clock string) string {
		parts := strings.Split(clock, ":")
		for i, p := range parts {
			if len(p) == 1 {
				parts[i] = "0" + p
			}
		}
		return strings.Join(parts, ":")
	})
}

// ParseTimestamp tries the vendor timestamp layouts in priority order and
// returns the first exact match. Naive values are placed in loc (UTC when nil).
// It never fails: unparseable input reports false.
func ParseTimestamp(text string, loc *time.Location) (time.Time, bool) {
	// time.Parse accepts fractional seconds the layouts do not name.
	if text == "" || text == "-" || strings.ContainsRune(text, '.') {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	text = padClock(text)
	for _, l := range timestampLayouts {
		value := text
		if l.upper {
			value = strings.ToUpper(value)
		}
		if t, err := time.ParseInLocation(l.layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
