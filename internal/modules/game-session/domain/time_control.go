package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type TimeControl struct {
	BaseMinutes      int `json:"baseMinutes"`
	IncrementSeconds int `json:"incrementSeconds"`
}

func (tc TimeControl) Base() time.Duration {
	return time.Duration(tc.BaseMinutes) * time.Minute
}

func (tc TimeControl) Increment() time.Duration {
	return time.Duration(tc.IncrementSeconds) * time.Second
}

// String renders the control as "base+increment", e.g. "10+0". It is
// also the queue key.
func (tc TimeControl) String() string {
	return fmt.Sprintf("%d+%d", tc.BaseMinutes, tc.IncrementSeconds)
}

// ParseTimeControl accepts "10+5" or a bare "10" (no increment).
func ParseTimeControl(s string) (TimeControl, error) {
	s = strings.TrimSpace(s)
	base, inc, found := strings.Cut(s, "+")

	minutes, err := strconv.Atoi(strings.TrimSpace(base))
	if err != nil {
		return TimeControl{}, fmt.Errorf("time control %q: %w", s, ErrInvalidTimeControl)
	}

	seconds := 0
	if found {
		seconds, err = strconv.Atoi(strings.TrimSpace(inc))
		if err != nil {
			return TimeControl{}, fmt.Errorf("time control %q: %w", s, ErrInvalidTimeControl)
		}
	}

	tc := TimeControl{BaseMinutes: minutes, IncrementSeconds: seconds}
	if minutes <= 0 || seconds < 0 {
		return TimeControl{}, fmt.Errorf("time control %q: %w", s, ErrInvalidTimeControl)
	}

	return tc, nil
}

// TimeControlSet is the finite, enumerated set of accepted controls.
type TimeControlSet struct {
	allowed map[TimeControl]struct{}
	ordered []TimeControl
}

var DefaultTimeControls = []TimeControl{
	{BaseMinutes: 1},
	{BaseMinutes: 3},
	{BaseMinutes: 3, IncrementSeconds: 2},
	{BaseMinutes: 10},
	{BaseMinutes: 10, IncrementSeconds: 5},
	{BaseMinutes: 30},
}

func NewTimeControlSet(controls ...TimeControl) TimeControlSet {
	if len(controls) == 0 {
		controls = DefaultTimeControls
	}

	set := TimeControlSet{allowed: make(map[TimeControl]struct{}, len(controls))}
	for _, tc := range controls {
		if _, ok := set.allowed[tc]; ok {
			continue
		}
		set.allowed[tc] = struct{}{}
		set.ordered = append(set.ordered, tc)
	}

	return set
}

// ParseTimeControlSet parses a comma separated list such as "1+0,10+5".
func ParseTimeControlSet(s string) (TimeControlSet, error) {
	var controls []TimeControl
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		tc, err := ParseTimeControl(part)
		if err != nil {
			return TimeControlSet{}, err
		}
		controls = append(controls, tc)
	}

	if len(controls) == 0 {
		return TimeControlSet{}, fmt.Errorf("empty time control list: %w", ErrInvalidTimeControl)
	}

	return NewTimeControlSet(controls...), nil
}

func (s TimeControlSet) Validate(tc TimeControl) error {
	if _, ok := s.allowed[tc]; !ok {
		return fmt.Errorf("time control %s: %w", tc, ErrInvalidTimeControl)
	}
	return nil
}

func (s TimeControlSet) All() []TimeControl {
	return append([]TimeControl(nil), s.ordered...)
}
