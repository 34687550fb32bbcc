// Package calendar implements the date arithmetic used for contract deadlines.
//
// All values are calendar dates: they are normalized to midnight UTC so that
// day deltas never depend on the process timezone or on DST transitions.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Accepted input layouts for user-entered dates.
const (
	LayoutISO      = "2006-01-02"
	LayoutDayFirst = "02.01.2006"
)

// ErrInvalidDate is returned when user input matches none of the accepted layouts.
var ErrInvalidDate = errors.New("invalid date")

// Date returns the calendar date of t (as seen in t's location) at midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Date(now.In(loc))
}

// AddMonths shifts t by n calendar months. When the target month is shorter
// than t's day, the result is clamped to the target month's last day, so
// 2024-03-31 minus one month is 2024-02-29 and 2023-03-31 minus one month is
// 2023-02-28. time.AddDate would normalize into the following month instead.
func AddMonths(t time.Time, n int) time.Time {
	t = Date(t)
	y, m, d := t.Date()

	total := int(m) - 1 + n
	y += floorDiv(total, 12)
	month := time.Month(floorMod(total, 12) + 1)

	if last := DaysIn(y, month); d > last {
		d = last
	}
	return time.Date(y, month, d, 0, 0, 0, 0, time.UTC)
}

// NextCancellationDate is the last day to cancel before the contract renews.
func NextCancellationDate(end time.Time, noticeMonths int) time.Time {
	return AddMonths(end, -noticeMonths)
}

// DaysUntil returns whole days from today to target. It is negative once
// target has passed.
func DaysUntil(target, today time.Time) int {
	return int((Date(target).Unix() - Date(today).Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ParseDate accepts YYYY-MM-DD or DD.MM.YYYY.
func ParseDate(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	for _, layout := range []string{LayoutISO, LayoutDayFirst} {
		if len(input) != len(layout) {
			continue
		}
		if t, err := time.Parse(layout, input); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, input)
}

// Format renders a date in the ISO layout used for storage and display.
func Format(t time.Time) string {
	return t.Format(LayoutISO)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
