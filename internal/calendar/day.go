// Package calendar provides a calendar-day value type that carries no
// time-of-day and no zone, so equality and ordering never drift with the
// caller's timezone.
package calendar

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layout is the canonical wire format of a Day.
const Layout = "2006-01-02"

// ErrInvalidDay is returned when a value cannot be read as a calendar day.
var ErrInvalidDay = errors.New("invalid calendar day")

// Day is a year/month/day triple. The zero value means "no day".
type Day struct {
	year  int
	month time.Month
	day   int
}

// Date builds a Day, normalising overflow the way time.Date does
// (e.g. January 32 becomes February 1).
func Date(year int, month time.Month, day int) Day {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime returns the day t falls on in t's own location.
func FromTime(t time.Time) Day {
	y, m, d := t.Date()
	return Day{year: y, month: m, day: d}
}

// Parse reads "2006-01-02". Full RFC 3339 timestamps are accepted too; the
// date is taken as written, ignoring the offset.
func Parse(value string) (Day, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Day{}, fmt.Errorf("%w: empty value", ErrInvalidDay)
	}

	if t, err := time.Parse(Layout, value); err == nil {
		return FromTime(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return FromTime(t), nil
	}

	return Day{}, fmt.Errorf("%w: %q", ErrInvalidDay, value)
}

// MustParse is Parse for literals in tests and fixtures.
func MustParse(value string) Day {
	d, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Day) Year() int { return d.year }

func (d Day) Month() time.Month { return d.month }

func (d Day) DayOfMonth() int { return d.day }

func (d Day) IsZero() bool { return d == Day{} }

func (d Day) Weekday() time.Weekday { return d.Time().Weekday() }

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the day n days after d (n may be negative).
func (d Day) AddDays(n int) Day {
	return FromTime(d.Time().AddDate(0, 0, n))
}

// DaysUntil returns the number of days from d to other; negative when other
// is earlier.
func (d Day) DaysUntil(other Day) int {
	return int(other.Time().Sub(d.Time()).Hours() / 24)
}

// Compare returns -1, 0 or +1.
func (d Day) Compare(other Day) int {
	switch {
	case d.year != other.year:
		return cmpInt(d.year, other.year)
	case d.month != other.month:
		return cmpInt(int(d.month), int(other.month))
	default:
		return cmpInt(d.day, other.day)
	}
}

func (d Day) Before(other Day) bool { return d.Compare(other) < 0 }

func (d Day) After(other Day) bool { return d.Compare(other) > 0 }

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

// MarshalText implements encoding.TextMarshaler; JSON uses it as well.
func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input yields the
// zero Day.
func (d *Day) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*d = Day{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// GormDataType stores days in a DATE column.
func (Day) GormDataType() string {
	return "date"
}

// Value implements driver.Valuer. Days are written as "2006-01-02" so the
// unique key built on them is identical across drivers.
func (d Day) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan implements sql.Scanner.
func (d *Day) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Day{}
		return nil
	case time.Time:
		*d = FromTime(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("%w: unsupported scan type %T", ErrInvalidDay, src)
	}
}

func (d *Day) scanString(v string) error {
	v = strings.TrimSpace(v)
	// sqlite may hand back "2006-01-02 00:00:00+00:00" for DATE columns
	if len(v) > len(Layout) {
		v = v[:len(Layout)]
	}
	parsed, err := Parse(v)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
