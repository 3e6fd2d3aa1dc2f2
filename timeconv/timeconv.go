// Package timeconv turns a user's wall-clock reminder time into an absolute instant.
package timeconv

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without /usr/share/zoneinfo
)

const (
	// DefaultSourceZone is the zone users type their reminder times in.
	DefaultSourceZone = "Asia/Kolkata"
	// DefaultTargetZone is the server reference zone.
	DefaultTargetZone = "UTC"

	// DisplayLayout is how instants are echoed back to users.
	DisplayLayout = "2006-01-02 03:04 PM"
)

var (
	// ErrInvalidFormat is returned for any clock or date string outside the grammar.
	ErrInvalidFormat = errors.New("invalid time format")
	// ErrNonexistentTime is returned for wall-clock times skipped by a DST transition.
	ErrNonexistentTime = fmt.Errorf("%w: time does not exist in timezone", ErrInvalidFormat)
	// ErrUnknownZone is returned when a timezone name is not in the zone database.
	ErrUnknownZone = errors.New("unknown timezone")
)

// HH:MM, H:MM, hh:mm AM, hh:mmPM
var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?:\s*([AaPp][Mm]))?$`)

var dateLayouts = []string{"2006-01-02", "02-01-2006", "02/01/2006"}

// ParseClock parses a 24h "HH:MM" or 12h "hh:mm AM/PM" string into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	match := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if match == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}

	hour, _ = strconv.Atoi(match[1])
	minute, _ = strconv.Atoi(match[2])
	if minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute out of range in %q", ErrInvalidFormat, s)
	}

	meridiem := strings.ToUpper(match[3])
	if meridiem == "" {
		if hour > 23 {
			return 0, 0, fmt.Errorf("%w: hour out of range in %q", ErrInvalidFormat, s)
		}
		return hour, minute, nil
	}

	if hour < 1 || hour > 12 {
		return 0, 0, fmt.Errorf("%w: hour out of range in %q", ErrInvalidFormat, s)
	}
	hour %= 12
	if meridiem == "PM" {
		hour += 12
	}
	return hour, minute, nil
}

// ParseDate accepts YYYY-MM-DD, DD-MM-YYYY and DD/MM/YYYY.
func ParseDate(s string) (year int, month time.Month, day int, err error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, perr := time.Parse(layout, s); perr == nil {
			return d.Year(), d.Month(), d.Day(), nil
		}
	}
	return 0, 0, 0, fmt.Errorf("%w: unrecognised date %q", ErrInvalidFormat, s)
}

// LoadZone resolves an IANA zone name, using fallback when name is empty.
func LoadZone(name, fallback string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		name = fallback
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrUnknownZone, name, err)
	}
	return loc, nil
}

// ToAbsoluteInstant combines a clock string and a date typed in sourceTZ and returns the
// same instant expressed in targetTZ. Empty zone names use the package defaults.
func ToAbsoluteInstant(timeOfDay, date, sourceTZ, targetTZ string) (time.Time, error) {
	hour, minute, err := ParseClock(timeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	year, month, day, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}

	src, err := LoadZone(sourceTZ, DefaultSourceZone)
	if err != nil {
		return time.Time{}, err
	}
	dst, err := LoadZone(targetTZ, DefaultTargetZone)
	if err != nil {
		return time.Time{}, err
	}

	local := time.Date(year, month, day, hour, minute, 0, 0, src)
	// time.Date normalises times inside a DST gap; catch that instead of silently shifting.
	if local.Hour() != hour || local.Minute() != minute || local.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %s %s in %s", ErrNonexistentTime, date, timeOfDay, src)
	}

	return local.In(dst), nil
}

// FormatIn renders t as a wall-clock string in the named zone.
func FormatIn(t time.Time, zone string) string {
	loc, err := LoadZone(zone, DefaultSourceZone)
	if err != nil {
		return t.Format(DisplayLayout)
	}
	return t.In(loc).Format(DisplayLayout)
}
