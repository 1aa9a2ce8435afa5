package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDueMonthly(t *testing.T) {
	spec := Spec{Frequency: Monthly, Interval: 1, Start: day(2024, 1, 15)}
	next, ok, err := NextDue(spec, day(2024, 2, 1))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, day(2024, 2, 15), next)
}

func TestNextDueWeeklyWeekdays(t *testing.T) {
	spec := Spec{
		Frequency: Weekly,
		Interval:  1,
		Start:     day(2024, 3, 4),
		Weekdays:  []time.Weekday{time.Monday, time.Wednesday},
	}
	next, ok, err := NextDue(spec, day(2024, 3, 5))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, day(2024, 3, 6), next)
	require.Equal(t, time.Wednesday, next.Weekday())
}

func TestNextDueKeepsLocalWeekday(t *testing.T) {
	bogota := time.FixedZone("COT", -5*3600)
	start := time.Date(2024, 3, 4, 20, 0, 0, 0, bogota)
	spec := Spec{
		Frequency: Weekly,
		Interval:  1,
		Start:     start,
		Weekdays:  []time.Weekday{time.Monday, time.Wednesday},
	}
	require.Equal(t, time.Date(2024, 3, 4, 20, 0, 0, 0, time.UTC), spec.Normalize().Start)
	require.Equal(t, "DTSTART:20240304T200000Z\nRRULE:FREQ=WEEKLY;INTERVAL=1;BYDAY=MO,WE", spec.String())

	next, ok, err := NextDue(spec, start)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, time.Monday, next.Weekday())

	next, ok, err = NextDue(spec, start.Add(time.Second))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 3, 6, 20, 0, 0, 0, time.UTC), next)
	require.Equal(t, time.Wednesday, next.Weekday())

	got, err := Occurrences(spec, start, 4)
	require.NoError(t, err)
	var days []time.Weekday
	for _, o := range got {
		days = append(days, o.Weekday())
	}
	require.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Monday, time.Wednesday}, days)
}

func TestNextDueIsInclusive(t *testing.T) {
	spec := Spec{Frequency: Daily, Interval: 3, Start: day(2024, 1, 1)}
	next, ok, err := NextDue(spec, day(2024, 1, 7))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, day(2024, 1, 7), next)
}

func TestNextDueExhausted(t *testing.T) {
	end := day(2024, 3, 31)
	spec := Spec{Frequency: Monthly, Interval: 1, Start: day(2024, 1, 15), End: &end}

	next, ok, err := NextDue(spec, day(2024, 3, 20))
	require.NoError(t, err)
	require.False(t, ok)
	require.True(t, next.IsZero())

	next, ok, err = NextDue(spec, day(2024, 3, 1))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, day(2024, 3, 15), next)
}

func TestOccurrences(t *testing.T) {
	spec := Spec{Frequency: Weekly, Interval: 2, Start: day(2024, 3, 4), Weekdays: []time.Weekday{time.Friday, time.Monday}}
	got, err := Occurrences(spec, day(2024, 3, 4), 4)
	require.NoError(t, err)
	require.Equal(t, []time.Time{day(2024, 3, 4), day(2024, 3, 8), day(2024, 3, 18), day(2024, 3, 22)}, got)

	end := day(2024, 2, 20)
	short := Spec{Frequency: Monthly, Interval: 1, Start: day(2024, 1, 15), End: &end}
	got, err = Occurrences(short, day(2024, 1, 1), 10)
	require.NoError(t, err)
	require.Equal(t, []time.Time{day(2024, 1, 15), day(2024, 2, 15)}, got)
}

func TestStringRoundTrip(t *testing.T) {
	end := day(2025, 6, 30)
	specs := []Spec{
		{Frequency: Daily, Interval: 1, Start: day(2024, 1, 1)},
		{Frequency: Weekly, Interval: 2, Start: day(2024, 3, 4), Weekdays: []time.Weekday{time.Wednesday, time.Monday, time.Wednesday}},
		{Frequency: Monthly, Interval: 3, Start: time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC), End: &end},
		{Frequency: Yearly, Interval: 1, Start: day(2020, 2, 29)},
		{Frequency: Monthly, Interval: 1, Start: day(2024, 1, 15), Weekdays: []time.Weekday{time.Friday}},
	}
	for _, s := range specs {
		parsed, err := Parse(s.String())
		require.NoError(t, err, s.String())
		require.Equal(t, s.Normalize(), parsed)
		require.Equal(t, s.String(), parsed.String())
	}
}

func TestStringFormat(t *testing.T) {
	end := day(2024, 12, 31)
	s := Spec{Frequency: Weekly, Interval: 1, Start: day(2024, 3, 4), Weekdays: []time.Weekday{time.Wednesday, time.Monday}, End: &end}
	require.Equal(t, "DTSTART:20240304T000000Z\nRRULE:FREQ=WEEKLY;INTERVAL=1;BYDAY=MO,WE;UNTIL=20241231T000000Z", s.String())
}

func TestNormalizeDropsWeekdaysOutsideWeekly(t *testing.T) {
	s := Spec{Frequency: Monthly, Interval: 1, Start: day(2024, 1, 15), Weekdays: []time.Weekday{time.Friday}}
	require.Nil(t, s.Normalize().Weekdays)
}

func TestValidate(t *testing.T) {
	before := day(2023, 1, 1)
	cases := map[string]Spec{
		"unknown frequency": {Frequency: "hourly", Interval: 1, Start: day(2024, 1, 1)},
		"zero interval":     {Frequency: Daily, Interval: 0, Start: day(2024, 1, 1)},
		"missing start":     {Frequency: Daily, Interval: 1},
		"end before start":  {Frequency: Daily, Interval: 1, Start: day(2024, 1, 1), End: &before},
		"bad weekday":       {Frequency: Weekly, Interval: 1, Start: day(2024, 1, 1), Weekdays: []time.Weekday{9}},
	}
	for name, s := range cases {
		err := s.Validate()
		require.True(t, errors.Is(err, ErrInvalidSpec), name)
		_, _, err = NextDue(s, day(2024, 1, 1))
		require.Error(t, err, name)
	}
}

func TestParseErrors(t *testing.T) {
	for _, text := range []string{
		"",
		"RRULE:FREQ=DAILY",
		"DTSTART:20240101T000000Z",
		"DTSTART:20240101\nRRULE:FREQ=DAILY",
		"DTSTART:20240101T000000Z\nRRULE:FREQ=HOURLY",
		"DTSTART:20240101T000000Z\nRRULE:FREQ=DAILY;COUNT=3",
		"DTSTART:20240101T000000Z\nRRULE:FREQ=WEEKLY;BYDAY=XX",
		"DTSTART:20240101T000000Z\nRRULE:FREQ=DAILY;INTERVAL=0",
	} {
		_, err := Parse(text)
		require.ErrorIs(t, err, ErrInvalidSpec, text)
	}
}

func TestParseFrequencyAndWeekday(t *testing.T) {
	f, err := ParseFrequency(" Weekly ")
	require.NoError(t, err)
	require.Equal(t, Weekly, f)

	d, err := ParseWeekday("we")
	require.NoError(t, err)
	require.Equal(t, time.Wednesday, d)
	require.Equal(t, "WE", WeekdayCode(d))
}
