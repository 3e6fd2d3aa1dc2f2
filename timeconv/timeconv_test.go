package timeconv

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in         string
		wantHour   int
		wantMinute int
		wantErr    bool
	}{
		{in: "14:30", wantHour: 14, wantMinute: 30},
		{in: "00:00", wantHour: 0, wantMinute: 0},
		{in: "9:05", wantHour: 9, wantMinute: 5},
		{in: "02:15 PM", wantHour: 14, wantMinute: 15},
		{in: "12:00 AM", wantHour: 0, wantMinute: 0},
		{in: "12:45 pm", wantHour: 12, wantMinute: 45},
		{in: "7:30am", wantHour: 7, wantMinute: 30},
		{in: "25:99", wantErr: true},
		{in: "24:00", wantErr: true},
		{in: "13:00 PM", wantErr: true},
		{in: "0:30 AM", wantErr: true},
		{in: "10:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
		{in: "10:30 XM", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			hour, minute, err := ParseClock(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHour, hour)
			assert.Equal(t, tt.wantMinute, minute)
		})
	}
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2026-10-18", "18-10-2026", "18/10/2026"} {
		year, month, day, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, 2026, year)
		assert.Equal(t, time.October, month)
		assert.Equal(t, 18, day)
	}

	_, _, _, err := ParseDate("2026-02-30")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, _, _, err = ParseDate("tomorrow")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestToAbsoluteInstantDefaults(t *testing.T) {
	// Asia/Kolkata is UTC+05:30 with no DST.
	got, err := ToAbsoluteInstant("02:30 PM", "2026-10-18", "", "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC), got)
	assert.Equal(t, "UTC", got.Location().String())
}

func TestToAbsoluteInstantRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		clock string
		date  string
		zone  string
	}{
		{name: "kolkata afternoon", clock: "14:45", date: "2026-01-01", zone: "Asia/Kolkata"},
		{name: "new york before dst end", clock: "11:59 PM", date: "2026-10-31", zone: "America/New_York"},
		{name: "new york after dst end", clock: "08:00 AM", date: "2026-11-02", zone: "America/New_York"},
		{name: "london summer", clock: "06:15", date: "2026-07-04", zone: "Europe/London"},
		{name: "midnight", clock: "12:00 AM", date: "2026-03-01", zone: "Australia/Sydney"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instant, err := ToAbsoluteInstant(tt.clock, tt.date, tt.zone, "UTC")
			require.NoError(t, err)

			hour, minute, err := ParseClock(tt.clock)
			require.NoError(t, err)
			year, month, day, err := ParseDate(tt.date)
			require.NoError(t, err)

			loc, err := time.LoadLocation(tt.zone)
			require.NoError(t, err)
			back := instant.In(loc)
			assert.Equal(t, hour, back.Hour())
			assert.Equal(t, minute, back.Minute())
			assert.Equal(t, year, back.Year())
			assert.Equal(t, month, back.Month())
			assert.Equal(t, day, back.Day())
			assert.Equal(t, 0, back.Second())
		})
	}
}

func TestToAbsoluteInstantDST(t *testing.T) {
	// America/New_York: EDT (UTC-4) in summer, EST (UTC-5) in winter.
	summer, err := ToAbsoluteInstant("09:00", "2026-07-01", "America/New_York", "UTC")
	require.NoError(t, err)
	assert.Equal(t, 13, summer.Hour())

	winter, err := ToAbsoluteInstant("09:00", "2026-12-01", "America/New_York", "UTC")
	require.NoError(t, err)
	assert.Equal(t, 14, winter.Hour())
}

func TestToAbsoluteInstantNonexistentTime(t *testing.T) {
	// 2026-03-08 02:30 is skipped in America/New_York.
	_, err := ToAbsoluteInstant("02:30", "2026-03-08", "America/New_York", "UTC")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNonexistentTime)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestToAbsoluteInstantErrors(t *testing.T) {
	_, err := ToAbsoluteInstant("25:99", "2026-10-18", "", "")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = ToAbsoluteInstant("10:00", "18.10.2026", "", "")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = ToAbsoluteInstant("10:00", "2026-10-18", "Mars/Olympus", "")
	assert.ErrorIs(t, err, ErrUnknownZone)
}

func TestFormatIn(t *testing.T) {
	instant := time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-10-18 02:30 PM", FormatIn(instant, "Asia/Kolkata"))
}
