// Package puzzle derives the daily digit sequence from a calendar date.
//
// Dates are written M-DD-YYYY: month unpadded, day padded to two digits and
// year padded to four, e.g. "9-17-2025". The required digits are the month
// digits followed by the two day digits and the four year digits.
package puzzle

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"crackledate/internal/models"
)

// Date is a calendar day identifying one puzzle
type Date struct {
	Month int
	Day   int
	Year  int
}

// Parse reads a date in M-DD-YYYY form. An unpadded day is accepted.
func Parse(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return Date{}, invalidDate(s, "expected M-DD-YYYY")
	}
	nums := make([]int, 3)
	for i, p := range parts {
		if p == "" || len(p) > 4 {
			return Date{}, invalidDate(s, "expected M-DD-YYYY")
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Date{}, invalidDate(s, "non-numeric component")
		}
		nums[i] = n
	}
	d := Date{Month: nums[0], Day: nums[1], Year: nums[2]}
	if len(parts[2]) != 4 {
		return Date{}, invalidDate(s, "year must have four digits")
	}
	if d.Month < 1 || d.Month > 12 {
		return Date{}, invalidDate(s, "month out of range")
	}
	if d.Day < 1 || d.Day > daysIn(d.Month, d.Year) {
		return Date{}, invalidDate(s, "day out of range")
	}
	return d, nil
}

// MustParse is Parse for literals known to be valid
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromTime returns the calendar date of t in t's location
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Month: int(m), Day: d, Year: y}
}

// Today returns the puzzle date for now as observed in loc
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return FromTime(now.In(loc))
}

// String formats the canonical M-DD-YYYY key
func (d Date) String() string {
	return fmt.Sprintf("%d-%02d-%04d", d.Month, d.Day, d.Year)
}

// Digits returns the ordered digit sequence the player must use
func (d Date) Digits() []int {
	digits := make([]int, 0, 8)
	if d.Month >= 10 {
		digits = append(digits, d.Month/10)
	}
	digits = append(digits, d.Month%10)
	digits = append(digits, d.Day/10, d.Day%10)
	digits = append(digits,
		d.Year/1000,
		(d.Year%1000)/100,
		(d.Year%100)/10,
		d.Year%10,
	)
	return digits
}

// Time returns midnight of d in UTC
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n days after d
func (d Date) AddDays(n int) Date {
	return FromTime(d.Time().AddDate(0, 0, n))
}

// Compare returns -1, 0 or +1 as d is before, equal to or after other
func (d Date) Compare(other Date) int {
	return d.Time().Compare(other.Time())
}

func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool  { return d.Compare(other) > 0 }

// DaysBetween returns the whole days from a to b (negative when b is earlier)
func DaysBetween(a, b Date) int {
	return int(b.Time().Sub(a.Time()).Hours() / 24)
}

// Canonical parses s and re-formats it, e.g. "9-5-2025" → "9-05-2025"
func Canonical(s string) (string, error) {
	d, err := Parse(s)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

func daysIn(month, year int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func invalidDate(s, reason string) error {
	return models.NewGameError(models.ErrInvalidDate, fmt.Sprintf("invalid puzzle date %q: %s", s, reason))
}
