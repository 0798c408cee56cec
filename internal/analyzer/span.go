package analyzer

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var spanPattern = regexp.MustCompile(`(\d+)([hdwmy])`)

// ParseSpan parses spans such as "90d", "2w" or "1y6m". Months count as 30
// days and years as 365.
func ParseSpan(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	matches := spanPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("invalid span format: %s", s)
	}
	consumed := 0
	for _, m := range matches {
		consumed += len(m[0])
	}
	if consumed != len(s) {
		return 0, fmt.Errorf("invalid span format: %s", s)
	}

	var total time.Duration
	for _, m := range matches {
		value, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, fmt.Errorf("invalid number in span: %s", m[1])
		}
		switch m[2] {
		case "h":
			total += time.Duration(value) * time.Hour
		case "d":
			total += time.Duration(value) * 24 * time.Hour
		case "w":
			total += time.Duration(value) * 7 * 24 * time.Hour
		case "m":
			total += time.Duration(value) * 30 * 24 * time.Hour
		case "y":
			total += time.Duration(value) * 365 * 24 * time.Hour
		}
	}
	return total, nil
}

// ParseDate accepts "2006-01-02" or RFC 3339 in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD or RFC 3339)", s)
}
