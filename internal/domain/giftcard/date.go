package giftcard

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// inputLayouts are the date formats accepted from users.
var inputLayouts = []string{dateLayout, "02.01.2006", "02/01/2006", "2.1.2006"}

// Date is a calendar date without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a user-entered date in one of the accepted layouts.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, &ValidationError{Field: "expiry date", Message: fmt.Sprintf("%q is not a date (use YYYY-MM-DD or DD.MM.YYYY)", s)}
}

func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// At returns the instant at hour:minute on this date in loc.
func (d Date) At(hour, minute int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, loc)
}

// AddDays returns the date days later (earlier when negative).
func (d Date) AddDays(days int) Date {
	return DateOf(d.At(0, 0, time.UTC).AddDate(0, 0, days))
}

// AddMonths returns the date months later, normalized the way time.AddDate does.
func (d Date) AddMonths(months int) Date {
	return DateOf(d.At(0, 0, time.UTC).AddDate(0, months, 0))
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after other.
func (d Date) Compare(other Date) int {
	return d.At(0, 0, time.UTC).Compare(other.At(0, 0, time.UTC))
}

func (d Date) String() string {
	return d.At(0, 0, time.UTC).Format(dateLayout)
}

// Value stores the date as YYYY-MM-DD, which both DATE and TEXT columns accept.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan reads a DATE column (time.Time from lib/pq) or a TEXT column (SQLite).
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.parseStored(v)
	case []byte:
		return d.parseStored(string(v))
	case nil:
		return fmt.Errorf("cannot scan NULL into giftcard.Date")
	default:
		return fmt.Errorf("cannot scan %T into giftcard.Date", src)
	}
}

func (d *Date) parseStored(s string) error {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("error parsing stored date %q: %w", s, err)
	}
	*d = DateOf(t)
	return nil
}
