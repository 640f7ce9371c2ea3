package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ResolvePeriodEnd returns the last calendar day of a reporting period.
// Accepted codes are Q1..Q4, M1..M12 and YEAR (case-insensitive).
func ResolvePeriodEnd(period string, year int) (time.Time, error) {
	if year < 1 || year > 9999 {
		return time.Time{}, fmt.Errorf("year %d out of range", year)
	}
	code := strings.ToUpper(strings.TrimSpace(period))

	var lastMonth int
	switch {
	case code == "YEAR":
		lastMonth = 12
	case len(code) >= 2 && (code[0] == 'Q' || code[0] == 'M'):
		n, err := strconv.Atoi(code[1:])
		if err != nil {
			return time.Time{}, fmt.Errorf("period %q: %w", period, err)
		}
		if code[0] == 'Q' {
			if n < 1 || n > 4 {
				return time.Time{}, fmt.Errorf("quarter %d out of range", n)
			}
			lastMonth = n * 3
		} else {
			if n < 1 || n > 12 {
				return time.Time{}, fmt.Errorf("month %d out of range", n)
			}
			lastMonth = n
		}
	default:
		return time.Time{}, fmt.Errorf("unknown period code %q", period)
	}

	// day 0 of the following month is the last day of lastMonth
	return time.Date(year, time.Month(lastMonth)+1, 0, 0, 0, 0, 0, time.UTC), nil
}
