package availability

import "time"

type SlotStatus string

const (
	SlotAvailable       SlotStatus = "available"
	SlotPendingApproval SlotStatus = "pending_approval"
	SlotReserved        SlotStatus = "reserved"
	SlotExpired         SlotStatus = "expired"
	SlotBlocked         SlotStatus = "blocked"
	SlotCancelled       SlotStatus = "cancelled"
)

// AvailabilityRule is a recurring weekly template. Times are local "HH:MM";
// day_of_week follows time.Weekday numbering (0 = Sunday).
type AvailabilityRule struct {
	ID                     int        `db:"id" json:"id"`
	ProfileID              int        `db:"profile_id" json:"profile_id"`
	DayOfWeek              int        `db:"day_of_week" json:"day_of_week"`
	StartTime              string     `db:"start_time" json:"start_time"`
	EndTime                string     `db:"end_time" json:"end_time"`
	SlotDuration           int        `db:"slot_duration" json:"slot_duration"`
	BufferTime             int        `db:"buffer_time" json:"buffer_time"`
	MaxAppointmentsPerSlot int        `db:"max_appointments_per_slot" json:"max_appointments_per_slot"`
	IsActive               bool       `db:"is_active" json:"is_active"`
	EffectiveFrom          *time.Time `db:"effective_from" json:"effective_from,omitempty"`
	EffectiveTo            *time.Time `db:"effective_to" json:"effective_to,omitempty"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updated_at"`
}

// TimeSlot is one concrete bookable occurrence produced from a rule.
// Stored status is a cache; booking eligibility is always re-derived from the
// counter and the clock at write time.
type TimeSlot struct {
	ID                  int        `db:"id" json:"id"`
	ProfileID           int        `db:"profile_id" json:"profile_id"`
	ServiceID           int        `db:"service_id" json:"service_id"`
	StartTime           time.Time  `db:"start_time" json:"start_time"`
	EndTime             time.Time  `db:"end_time" json:"end_time"`
	MaxReservations     int        `db:"max_reservations" json:"max_reservations"`
	CurrentReservations int        `db:"current_reservations" json:"current_reservations"`
	Status              SlotStatus `db:"status" json:"status"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// Remaining reports capacity still open on the slot.
func (s *TimeSlot) Remaining() int {
	remaining := s.MaxReservations - s.CurrentReservations
	if remaining < 0 {
		return 0
	}
	return remaining
}

// BookableAt derives booking eligibility, ignoring a stale stored status.
func (s *TimeSlot) BookableAt(now time.Time) bool {
	if s.Status != SlotAvailable {
		return false
	}
	if s.Remaining() == 0 {
		return false
	}
	return s.StartTime.After(now)
}

type TimeSlotWithAvailability struct {
	TimeSlot
	Remaining int  `json:"remaining"`
	Bookable  bool `json:"bookable"`
}

type RuleRequest struct {
	DayOfWeek              int     `json:"day_of_week" binding:"min=0,max=6"`
	StartTime              string  `json:"start_time" binding:"required"`
	EndTime                string  `json:"end_time" binding:"required"`
	SlotDuration           int     `json:"slot_duration" binding:"required,min=15"`
	BufferTime             int     `json:"buffer_time" binding:"min=0"`
	MaxAppointmentsPerSlot int     `json:"max_appointments_per_slot" binding:"required,min=1"`
	EffectiveFrom          *string `json:"effective_from,omitempty"`
	EffectiveTo            *string `json:"effective_to,omitempty"`
}

type GenerateRequest struct {
	ServiceID int    `json:"service_id" binding:"required"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// GenerationResult reports a generation batch. Skipped counts slots that
// already existed for the same (profile, service, start) key; Failed counts
// per-item errors that did not abort the batch.
type GenerationResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// PreviewEntry aggregates one rule expansion on one calendar date.
type PreviewEntry struct {
	Date      string `json:"date"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	SlotCount int    `json:"slot_count"`
}
