// Package calendar converts timestamps and file times into local calendar
// dates encoded as YYYYMMDD integers.
package calendar

import (
	"fmt"
	"os"
	"time"
)

// Date is a calendar day encoded as year*10000 + month*100 + day. The zero
// value means "no date".
type Date int

// NewDate builds a Date from its parts without validating them.
func NewDate(year int, month time.Month, day int) Date {
	return Date(year*10000 + int(month)*100 + day)
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// Year returns the year part of d.
func (d Date) Year() int { return int(d) / 10000 }

// Month returns the month part of d.
func (d Date) Month() time.Month { return time.Month(int(d) / 100 % 100) }

// Day returns the day-of-month part of d.
func (d Date) Day() int { return int(d) % 100 }

// IsZero reports whether d is the "no date" value.
func (d Date) IsZero() bool { return d == 0 }

// Valid reports whether year/month/day name a real calendar day, so that
// time.Date would not roll it over into another month.
func Valid(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	return time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC).Day() == day
}

// Time returns noon of d in loc. Noon keeps the result on the right day even
// when a DST transition happens at midnight.
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, loc)
}

// String formats d as 2006-01-02.
func (d Date) String() string {
	if d == 0 {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year(), d.Month(), d.Day())
}

// Parse accepts either YYYYMMDD or YYYY-MM-DD.
func Parse(s string) (Date, error) {
	for _, layout := range []string{"20060102", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return 0, fmt.Errorf("invalid date %q (want YYYYMMDD or YYYY-MM-DD)", s)
}

// FromUTC interprets the fields as a UTC instant and returns the calendar
// date of that instant in loc.
func FromUTC(loc *time.Location, year, month, day, hour, min, sec int) Date {
	t := time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)
	return DateOf(t.In(loc))
}

// UTCToLocalDate is FromUTC in the process's local time zone.
func UTCToLocalDate(year, month, day, hour, min, sec int) Date {
	return FromUTC(time.Local, year, month, day, hour, min, sec)
}

// FileMtimeDate returns the local date of the file's modification time, or 0
// if the file cannot be stat'ed.
func FileMtimeDate(path string) Date {
	return FileMtimeDateIn(path, time.Local)
}

// FileMtimeDateIn is FileMtimeDate with the date taken in loc. A nil loc
// means time.Local.
func FileMtimeDateIn(path string, loc *time.Location) Date {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	if loc == nil {
		loc = time.Local
	}
	return DateOf(info.ModTime().In(loc))
}

// DayOfWeek returns 0 (Sunday) through 6 (Saturday) for d in local time.
func DayOfWeek(d Date) int {
	return int(d.Time(time.Local).Weekday())
}
