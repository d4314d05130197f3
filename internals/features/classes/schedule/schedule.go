// Package schedule holds the weekly time-slot model shared by classes and
// registrations. Everything here is pure and safe for concurrent use.
package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

/* ===============================
   Day
=================================*/

type Day int

const (
	Monday Day = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [...]string{"", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func (d Day) Valid() bool { return d >= Monday && d <= Sunday }

func (d Day) String() string {
	if !d.Valid() {
		return fmt.Sprintf("day(%d)", int(d))
	}
	return dayNames[d]
}

// ParseDay accepts full English names and 3-letter abbreviations, any case.
func ParseDay(s string) (Day, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 3 {
		return 0, fmt.Errorf("schedule: unknown day %q", s)
	}
	for i := Monday; i <= Sunday; i++ {
		if s == dayNames[i] || s == dayNames[i][:3] {
			return i, nil
		}
	}
	return 0, fmt.Errorf("schedule: unknown day %q", s)
}

func (d Day) MarshalJSON() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("schedule: invalid day %d", int(d))
	}
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("schedule: day must be a string: %w", err)
	}
	v, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

/* ===============================
   Clock (time of day)
=================================*/

// Clock is a time of day in seconds since midnight.
type Clock int

const dayEnd = Clock(24 * 3600)

// ParseClock reads "HH:MM" or "HH:MM:SS". "24:00" is allowed as an end bound.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	if s == "24:00" || s == "24:00:00" {
		return dayEnd, nil
	}
	if len(s) == 4 || len(s) == 7 { // "9:00", "9:00:00"
		s = "0" + s
	}
	if len(s) == 5 {
		s += ":00"
	}
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return 0, fmt.Errorf("schedule: invalid time %q", s)
	}
	return Clock(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
}

func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) String() string {
	h, m, s := int(c)/3600, int(c)%3600/60, int(c)%60
	if s != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

func (c Clock) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

func (c *Clock) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("schedule: time must be a string: %w", err)
	}
	v, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

/* ===============================
   TimeSlot & Schedule
=================================*/

type TimeSlot struct {
	Day   Day   `json:"day"`
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", s.Day, s.Start, s.End)
}

func (s TimeSlot) Validate() error {
	if !s.Day.Valid() {
		return fmt.Errorf("invalid day %d", int(s.Day))
	}
	if s.Start < 0 || s.End > dayEnd {
		return fmt.Errorf("%s: time out of range", s)
	}
	if s.Start >= s.End {
		return fmt.Errorf("%s: start must be before end", s)
	}
	return nil
}

// SlotsOverlap treats slots as half-open intervals, so back-to-back slots
// (10:00-11:00 and 11:00-12:00) do not overlap.
func SlotsOverlap(x, y TimeSlot) bool {
	return x.Day == y.Day && x.Start < y.End && x.End > y.Start
}

// Schedule is an ordered list of weekly slots. Order only affects display.
type Schedule []TimeSlot

var ErrEmptySchedule = errors.New("schedule must have at least one slot")

// Validate checks every slot and rejects a schedule that overlaps itself.
func (s Schedule) Validate() error {
	if len(s) == 0 {
		return ErrEmptySchedule
	}
	for i, slot := range s {
		if err := slot.Validate(); err != nil {
			return fmt.Errorf("slot %d: %w", i, err)
		}
	}
	for i := 0; i < len(s); i++ {
		for j := i + 1; j < len(s); j++ {
			if SlotsOverlap(s[i], s[j]) {
				return fmt.Errorf("slot %d (%s) overlaps slot %d (%s)", i, s[i], j, s[j])
			}
		}
	}
	return nil
}

// FirstConflict returns the first pair of clashing slots, scanning a in order.
func FirstConflict(a, b Schedule) (TimeSlot, TimeSlot, bool) {
	for _, x := range a {
		for _, y := range b {
			if SlotsOverlap(x, y) {
				return x, y, true
			}
		}
	}
	return TimeSlot{}, TimeSlot{}, false
}

// Overlaps is commutative and false whenever either side is empty.
func Overlaps(a, b Schedule) bool {
	_, _, ok := FirstConflict(a, b)
	return ok
}

func (s Schedule) String() string {
	parts := make([]string, 0, len(s))
	for _, slot := range s {
		parts = append(parts, slot.String())
	}
	return strings.Join(parts, ", ")
}

// Parse reads the text form produced by String, e.g.
// "monday 09:00-10:00, wed 13:00-14:30".
func Parse(text string) (Schedule, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptySchedule
	}
	out := make(Schedule, 0)
	for _, part := range strings.Split(text, ",") {
		fields := strings.Fields(part)
		if len(fields) != 2 {
			return nil, fmt.Errorf("schedule: cannot parse %q", strings.TrimSpace(part))
		}
		day, err := ParseDay(fields[0])
		if err != nil {
			return nil, err
		}
		bounds := strings.SplitN(fields[1], "-", 2)
		if len(bounds) != 2 {
			return nil, fmt.Errorf("schedule: cannot parse range %q", fields[1])
		}
		start, err := ParseClock(bounds[0])
		if err != nil {
			return nil, err
		}
		end, err := ParseClock(bounds[1])
		if err != nil {
			return nil, err
		}
		out = append(out, TimeSlot{Day: day, Start: start, End: end})
	}
	return out, nil
}

// UnmarshalJSON accepts either a slot array or the text form.
func (s *Schedule) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if strings.HasPrefix(trimmed, `"`) {
		var text string
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
		parsed, err := Parse(text)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}
	var slots []TimeSlot
	if err := json.Unmarshal(b, &slots); err != nil {
		return err
	}
	*s = slots
	return nil
}

// LegacyEqual is the old exact-string conflict rule, where two schedules
// clashed only if their stored text was identical.
//
// Deprecated: it misses partial overlaps. Use Overlaps.
func LegacyEqual(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}
