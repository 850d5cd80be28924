package availability

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidClock  = errors.New("invalid clock value, expected HH:MM")
	ErrInvalidWindow = errors.New("end time must be after start time")
)

// Window is a concrete slot interval on a calendar date.
type Window struct {
	Start time.Time
	End   time.Time
}

// ParseClock parses "HH:MM" into minutes since midnight.
func ParseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ValidateRule checks the structural invariants of a rule request before any
// mutation.
func ValidateRule(req RuleRequest) error {
	if req.DayOfWeek < 0 || req.DayOfWeek > 6 {
		return errors.New("day_of_week must be between 0 and 6")
	}

	start, err := ParseClock(req.StartTime)
	if err != nil {
		return err
	}

	end, err := ParseClock(req.EndTime)
	if err != nil {
		return err
	}

	if end <= start {
		return ErrInvalidWindow
	}

	if req.SlotDuration < 15 {
		return errors.New("slot_duration must be at least 15 minutes")
	}

	if req.BufferTime < 0 {
		return errors.New("buffer_time cannot be negative")
	}

	if req.MaxAppointmentsPerSlot < 1 {
		return errors.New("max_appointments_per_slot must be at least 1")
	}

	from, err := parseOptionalDate(req.EffectiveFrom)
	if err != nil {
		return err
	}
	to, err := parseOptionalDate(req.EffectiveTo)
	if err != nil {
		return err
	}
	if from != nil && to != nil && to.Before(*from) {
		return errors.New("effective_to cannot be before effective_from")
	}

	return nil
}

func parseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", *value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", *value)
	}
	return &d, nil
}

// AppliesOn reports whether the rule produces slots on the given calendar
// date: matching weekday, active flag, and effective bounds.
func (r *AvailabilityRule) AppliesOn(date time.Time) bool {
	if !r.IsActive {
		return false
	}
	if int(date.Weekday()) != r.DayOfWeek {
		return false
	}

	day := truncateToDay(date)
	if r.EffectiveFrom != nil && day.Before(truncateToDay(*r.EffectiveFrom)) {
		return false
	}
	if r.EffectiveTo != nil && day.After(truncateToDay(*r.EffectiveTo)) {
		return false
	}
	return true
}

// ExpandOn partitions the rule's window on one date into slot intervals.
// Consecutive slots are separated by the buffer, so the stride is
// duration + buffer; a final interval that would overrun the window is
// dropped. The date's weekday is not checked here; see AppliesOn.
func (r *AvailabilityRule) ExpandOn(date time.Time) ([]Window, error) {
	startMin, err := ParseClock(r.StartTime)
	if err != nil {
		return nil, err
	}
	endMin, err := ParseClock(r.EndTime)
	if err != nil {
		return nil, err
	}
	if endMin <= startMin {
		return nil, ErrInvalidWindow
	}

	stride := r.SlotDuration + r.BufferTime
	day := truncateToDay(date)

	var windows []Window
	for t := startMin; t+r.SlotDuration <= endMin; t += stride {
		windows = append(windows, Window{
			Start: day.Add(time.Duration(t) * time.Minute),
			End:   day.Add(time.Duration(t+r.SlotDuration) * time.Minute),
		})
	}

	return windows, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// eachDay iterates calendar dates in [from, to] inclusive.
func eachDay(from, to time.Time, fn func(date time.Time)) {
	for d := truncateToDay(from); !d.After(truncateToDay(to)); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}
