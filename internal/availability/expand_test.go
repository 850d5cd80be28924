package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		value   string
		minutes int
		wantErr bool
	}{
		{"09:00", 540, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"9:00am", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.value)
		if tt.wantErr {
			assert.Error(t, err, tt.value)
		} else {
			require.NoError(t, err, tt.value)
			assert.Equal(t, tt.minutes, got, tt.value)
		}
	}
}

func TestExpandOnWithBuffer(t *testing.T) {
	rule := AvailabilityRule{
		DayOfWeek:    1,
		StartTime:    "09:00",
		EndTime:      "10:00",
		SlotDuration: 20,
		BufferTime:   5,
		IsActive:     true,
	}

	// a Monday
	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	windows, err := rule.ExpandOn(date)
	require.NoError(t, err)

	// 09:00-09:20, then 5 min buffer, 09:25-09:45; a third slot would end
	// at 10:10 and is dropped
	require.Len(t, windows, 2)
	assert.Equal(t, time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC), windows[0].Start)
	assert.Equal(t, time.Date(2026, 9, 7, 9, 20, 0, 0, time.UTC), windows[0].End)
	assert.Equal(t, time.Date(2026, 9, 7, 9, 25, 0, 0, time.UTC), windows[1].Start)
	assert.Equal(t, time.Date(2026, 9, 7, 9, 45, 0, 0, time.UTC), windows[1].End)
}

func TestExpandOnNoPartialSlots(t *testing.T) {
	rule := AvailabilityRule{
		StartTime:    "09:00",
		EndTime:      "09:50",
		SlotDuration: 30,
		BufferTime:   0,
		IsActive:     true,
	}

	windows, err := rule.ExpandOn(time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// only one 30 min slot fits in 50 minutes
	require.Len(t, windows, 1)
	assert.Equal(t, 9, windows[0].Start.Hour())
	assert.Equal(t, 0, windows[0].Start.Minute())
}

func TestExpandOnExactFit(t *testing.T) {
	rule := AvailabilityRule{
		StartTime:    "09:00",
		EndTime:      "11:00",
		SlotDuration: 30,
		BufferTime:   0,
		IsActive:     true,
	}

	windows, err := rule.ExpandOn(time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, windows, 4)
	assert.Equal(t, 10, windows[3].Start.Hour())
	assert.Equal(t, 30, windows[3].Start.Minute())
	assert.Equal(t, 11, windows[3].End.Hour())
}

func TestExpandOnWindowSmallerThanSlot(t *testing.T) {
	rule := AvailabilityRule{
		StartTime:    "09:00",
		EndTime:      "09:15",
		SlotDuration: 30,
		IsActive:     true,
	}

	windows, err := rule.ExpandOn(time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestAppliesOn(t *testing.T) {
	effectiveFrom := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	effectiveTo := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)

	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	tuesday := time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)
	mondayBefore := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	mondayAfter := time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)

	rule := AvailabilityRule{
		DayOfWeek:     1,
		StartTime:     "09:00",
		EndTime:       "17:00",
		SlotDuration:  30,
		IsActive:      true,
		EffectiveFrom: &effectiveFrom,
		EffectiveTo:   &effectiveTo,
	}

	assert.True(t, rule.AppliesOn(monday))
	assert.False(t, rule.AppliesOn(tuesday), "wrong weekday")
	assert.False(t, rule.AppliesOn(mondayBefore), "before effective_from")
	assert.False(t, rule.AppliesOn(mondayAfter), "after effective_to")

	rule.IsActive = false
	assert.False(t, rule.AppliesOn(monday), "inactive rule")
}

func TestAppliesOnEffectiveBoundsInclusive(t *testing.T) {
	// both bounds fall on Mondays
	effectiveFrom := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	effectiveTo := time.Date(2026, 9, 21, 0, 0, 0, 0, time.UTC)

	rule := AvailabilityRule{
		DayOfWeek:     1,
		StartTime:     "09:00",
		EndTime:       "17:00",
		SlotDuration:  30,
		IsActive:      true,
		EffectiveFrom: &effectiveFrom,
		EffectiveTo:   &effectiveTo,
	}

	assert.True(t, rule.AppliesOn(effectiveFrom))
	assert.True(t, rule.AppliesOn(effectiveTo))
}

func TestValidateRule(t *testing.T) {
	valid := RuleRequest{
		DayOfWeek:              1,
		StartTime:              "09:00",
		EndTime:                "17:00",
		SlotDuration:           30,
		BufferTime:             5,
		MaxAppointmentsPerSlot: 1,
	}

	require.NoError(t, ValidateRule(valid))

	tests := []struct {
		name   string
		mutate func(r *RuleRequest)
	}{
		{"day too high", func(r *RuleRequest) { r.DayOfWeek = 7 }},
		{"day negative", func(r *RuleRequest) { r.DayOfWeek = -1 }},
		{"bad start clock", func(r *RuleRequest) { r.StartTime = "25:00" }},
		{"end before start", func(r *RuleRequest) { r.StartTime = "17:00"; r.EndTime = "09:00" }},
		{"end equals start", func(r *RuleRequest) { r.EndTime = "09:00" }},
		{"duration too short", func(r *RuleRequest) { r.SlotDuration = 10 }},
		{"negative buffer", func(r *RuleRequest) { r.BufferTime = -1 }},
		{"zero capacity", func(r *RuleRequest) { r.MaxAppointmentsPerSlot = 0 }},
		{"bad effective date", func(r *RuleRequest) { bad := "next week"; r.EffectiveFrom = &bad }},
		{"effective_to before effective_from", func(r *RuleRequest) {
			from := "2026-09-30"
			to := "2026-09-01"
			r.EffectiveFrom = &from
			r.EffectiveTo = &to
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			assert.Error(t, ValidateRule(req))
		})
	}
}

func TestEachDayInclusive(t *testing.T) {
	from := time.Date(2026, 9, 7, 10, 30, 0, 0, time.UTC)
	to := time.Date(2026, 9, 13, 8, 0, 0, 0, time.UTC)

	var days []time.Time
	eachDay(from, to, func(d time.Time) {
		days = append(days, d)
	})

	require.Len(t, days, 7)
	assert.Equal(t, time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), days[0])
	assert.Equal(t, time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC), days[6])
}
