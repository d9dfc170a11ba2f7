package fixedslot

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrInvalidTimeOfDay = errors.New("time of day must be HH:MM")
	ErrEmptyDaySet      = errors.New("at least one day of week is required")
	ErrInvalidDay       = errors.New("day of week must be 0-6")
)

// TimeOfDay is a wall-clock HH:MM within a day.
type TimeOfDay struct {
	hour   int
	minute int
}

func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, ErrInvalidTimeOfDay
	}
	return TimeOfDay{hour: hour, minute: minute}, nil
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 5 {
		return TimeOfDay{}, ErrInvalidTimeOfDay
	}
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, ErrInvalidTimeOfDay
	}
	return TimeOfDay{hour: parsed.Hour(), minute: parsed.Minute()}, nil
}

func (t TimeOfDay) Hour() int   { return t.hour }
func (t TimeOfDay) Minute() int { return t.minute }

func (t TimeOfDay) Before(other TimeOfDay) bool {
	if t.hour != other.hour {
		return t.hour < other.hour
	}
	return t.minute < other.minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.hour, t.minute)
}

// On anchors the time of day to a calendar date in the date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.hour, t.minute, 0, 0, date.Location())
}

// DaySet is a non-empty set of weekdays (0 = Sunday ... 6 = Saturday).
type DaySet struct {
	days map[time.Weekday]struct{}
}

func NewDaySet(days []int) (DaySet, error) {
	if len(days) == 0 {
		return DaySet{}, ErrEmptyDaySet
	}
	set := make(map[time.Weekday]struct{}, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return DaySet{}, ErrInvalidDay
		}
		set[time.Weekday(d)] = struct{}{}
	}
	return DaySet{days: set}, nil
}

func (s DaySet) Contains(day time.Weekday) bool {
	_, ok := s.days[day]
	return ok
}

func (s DaySet) Days() []int {
	out := make([]int, 0, len(s.days))
	for d := range s.days {
		out = append(out, int(d))
	}
	sort.Ints(out)
	return out
}
