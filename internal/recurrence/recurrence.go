// Package recurrence expands repetition specs into occurrence dates and
// computes the next due date of a recurring template.
package recurrence

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Frequency is the period a spec repeats over.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// ErrInvalidSpec is returned for specs that cannot produce a schedule.
var ErrInvalidSpec = errors.New("invalid recurrence spec")

const stamp = "20060102T150405Z"

var freqs = map[Frequency]rrule.Frequency{
	Daily:   rrule.DAILY,
	Weekly:  rrule.WEEKLY,
	Monthly: rrule.MONTHLY,
	Yearly:  rrule.YEARLY,
}

var dayCodes = map[time.Weekday]string{
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
	time.Sunday:    "SU",
}

var rruleDays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// Spec describes a repeating schedule. Weekdays only apply to weekly specs;
// a nil End means unbounded.
type Spec struct {
	Frequency Frequency
	Interval  int
	Start     time.Time
	Weekdays  []time.Weekday
	End       *time.Time
}

// ParseFrequency accepts a frequency name in any case.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := freqs[f]; !ok {
		return "", fmt.Errorf("%w: unknown frequency %q", ErrInvalidSpec, s)
	}
	return f, nil
}

// ParseWeekday accepts a two-letter day code (MO..SU) in any case.
func ParseWeekday(code string) (time.Weekday, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for d, c := range dayCodes {
		if c == code {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidSpec, code)
}

// WeekdayCode returns the two-letter code for d.
func WeekdayCode(d time.Weekday) string { return dayCodes[d] }

// Normalize returns the canonical form of s: times truncated to the second,
// weekdays sorted Monday first without duplicates, and weekdays dropped for
// non-weekly frequencies.
//
// Schedules are floating: Start and End keep the wall clock they were given
// in their own location and are then labelled UTC, so BYDAY matches the
// weekday the caller saw rather than the UTC one.
func (s Spec) Normalize() Spec {
	out := Spec{
		Frequency: Frequency(strings.ToLower(string(s.Frequency))),
		Interval:  s.Interval,
		Start:     floating(s.Start),
	}
	if s.End != nil {
		end := floating(*s.End)
		out.End = &end
	}
	if out.Frequency == Weekly && len(s.Weekdays) > 0 {
		days := slices.Clone(s.Weekdays)
		slices.SortFunc(days, func(a, b time.Weekday) int { return mondayFirst(a) - mondayFirst(b) })
		out.Weekdays = slices.Compact(days)
	}
	return out
}

func floating(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

func mondayFirst(d time.Weekday) int { return (int(d) + 6) % 7 }

// Validate checks that s can produce a schedule.
func (s Spec) Validate() error {
	if _, ok := freqs[Frequency(strings.ToLower(string(s.Frequency)))]; !ok {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidSpec, s.Frequency)
	}
	if s.Interval < 1 {
		return fmt.Errorf("%w: interval must be at least 1, got %d", ErrInvalidSpec, s.Interval)
	}
	if s.Start.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidSpec)
	}
	if s.End != nil && floating(*s.End).Before(floating(s.Start)) {
		return fmt.Errorf("%w: end date %s is before start %s", ErrInvalidSpec,
			s.End.Format(time.DateOnly), s.Start.Format(time.DateOnly))
	}
	for _, d := range s.Weekdays {
		if _, ok := dayCodes[d]; !ok {
			return fmt.Errorf("%w: weekday %d out of range", ErrInvalidSpec, d)
		}
	}
	return nil
}

// String serializes the normalized spec as a DTSTART line followed by an
// RRULE line, e.g.
//
//	DTSTART:20240304T000000Z
//	RRULE:FREQ=WEEKLY;INTERVAL=1;BYDAY=MO,WE
func (s Spec) String() string {
	n := s.Normalize()
	var b strings.Builder
	b.WriteString("DTSTART:")
	b.WriteString(n.Start.Format(stamp))
	b.WriteString("\nRRULE:FREQ=")
	b.WriteString(strings.ToUpper(string(n.Frequency)))
	b.WriteString(";INTERVAL=")
	b.WriteString(strconv.Itoa(n.Interval))
	if len(n.Weekdays) > 0 {
		codes := make([]string, len(n.Weekdays))
		for i, d := range n.Weekdays {
			codes[i] = dayCodes[d]
		}
		b.WriteString(";BYDAY=")
		b.WriteString(strings.Join(codes, ","))
	}
	if n.End != nil {
		b.WriteString(";UNTIL=")
		b.WriteString(n.End.Format(stamp))
	}
	return b.String()
}

// Parse reads the form written by Spec.String. The result is normalized.
func Parse(text string) (Spec, error) {
	var s Spec
	var sawStart, sawRule bool
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' }) {
		line = strings.TrimSpace(line)
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return Spec{}, fmt.Errorf("%w: malformed line %q", ErrInvalidSpec, line)
		}
		switch strings.ToUpper(name) {
		case "DTSTART":
			t, err := time.Parse(stamp, value)
			if err != nil {
				return Spec{}, fmt.Errorf("%w: DTSTART: %v", ErrInvalidSpec, err)
			}
			s.Start = t
			sawStart = true
		case "RRULE":
			if err := parseRule(&s, value); err != nil {
				return Spec{}, err
			}
			sawRule = true
		default:
			return Spec{}, fmt.Errorf("%w: unexpected property %q", ErrInvalidSpec, name)
		}
	}
	if !sawStart || !sawRule {
		return Spec{}, fmt.Errorf("%w: both DTSTART and RRULE are required", ErrInvalidSpec)
	}
	if err := s.Validate(); err != nil {
		return Spec{}, err
	}
	return s.Normalize(), nil
}

func parseRule(s *Spec, rule string) error {
	s.Interval = 1
	for _, part := range strings.Split(rule, ";") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return fmt.Errorf("%w: malformed rule part %q", ErrInvalidSpec, part)
		}
		switch strings.ToUpper(key) {
		case "FREQ":
			f, err := ParseFrequency(value)
			if err != nil {
				return err
			}
			s.Frequency = f
		case "INTERVAL":
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("%w: INTERVAL: %v", ErrInvalidSpec, err)
			}
			s.Interval = n
		case "BYDAY":
			for _, code := range strings.Split(value, ",") {
				d, err := ParseWeekday(code)
				if err != nil {
					return err
				}
				s.Weekdays = append(s.Weekdays, d)
			}
		case "UNTIL":
			t, err := time.Parse(stamp, value)
			if err != nil {
				return fmt.Errorf("%w: UNTIL: %v", ErrInvalidSpec, err)
			}
			s.End = &t
		default:
			return fmt.Errorf("%w: unsupported rule part %q", ErrInvalidSpec, key)
		}
	}
	return nil
}

func (s Spec) rule() (*rrule.RRule, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	n := s.Normalize()
	opt := rrule.ROption{
		Freq:     freqs[n.Frequency],
		Interval: n.Interval,
		Dtstart:  n.Start,
	}
	if n.End != nil {
		opt.Until = *n.End
	}
	for _, d := range n.Weekdays {
		opt.Byweekday = append(opt.Byweekday, rruleDays[d])
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	return r, nil
}

// NextDue returns the first occurrence at or after from, read as a wall
// clock like Start and End. It reports false when the schedule has
// ended before from.
func NextDue(s Spec, from time.Time) (time.Time, bool, error) {
	r, err := s.rule()
	if err != nil {
		return time.Time{}, false, err
	}
	next := r.After(floating(from), true)
	if next.IsZero() {
		return time.Time{}, false, nil
	}
	return next.UTC(), true, nil
}

// Occurrences returns up to n occurrences at or after from, in order.
func Occurrences(s Spec, from time.Time, n int) ([]time.Time, error) {
	r, err := s.rule()
	if err != nil {
		return nil, err
	}
	var out []time.Time
	cursor, inclusive := floating(from), true
	for len(out) < n {
		next := r.After(cursor, inclusive)
		if next.IsZero() {
			break
		}
		out = append(out, next.UTC())
		cursor, inclusive = next, false
	}
	return out, nil
}
