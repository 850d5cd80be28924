package reservation

import "time"

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
	StatusExpired  RequestStatus = "expired"
)

// Terminal reports whether the status is final. Terminal requests are
// immutable; every resolution path must lose the race to at most one winner.
func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusExpired
}

type UrgencyLevel string

const (
	UrgencyLow    UrgencyLevel = "low"
	UrgencyNormal UrgencyLevel = "normal"
	UrgencyHigh   UrgencyLevel = "high"
	UrgencyUrgent UrgencyLevel = "urgent"
)

// ReservationRequest is a visitor's attempt to claim a TimeSlot, held in
// pending until the advisor resolves it or the TTL runs out. RequestedTime
// is the slot start captured at submission for audit.
type ReservationRequest struct {
	ID             int           `db:"id" json:"id"`
	Reference      string        `db:"reference" json:"reference"`
	ProfileID      int           `db:"profile_id" json:"profile_id"`
	SlotID         int           `db:"slot_id" json:"slot_id"`
	ServiceID      int           `db:"service_id" json:"service_id"`
	PatientName    string        `db:"patient_name" json:"patient_name"`
	PatientPhone   string        `db:"patient_phone" json:"patient_phone"`
	PatientEmail   *string       `db:"patient_email" json:"patient_email,omitempty"`
	PatientAge     *int          `db:"patient_age" json:"patient_age,omitempty"`
	PatientGender  *string       `db:"patient_gender" json:"patient_gender,omitempty"`
	ChiefComplaint *string       `db:"chief_complaint" json:"chief_complaint,omitempty"`
	Symptoms       *string       `db:"symptoms" json:"symptoms,omitempty"`
	MedicalHistory *string       `db:"medical_history" json:"medical_history,omitempty"`
	Medications    *string       `db:"medications" json:"medications,omitempty"`
	Allergies      *string       `db:"allergies" json:"allergies,omitempty"`
	UrgencyLevel   UrgencyLevel  `db:"urgency_level" json:"urgency_level"`
	Status         RequestStatus `db:"status" json:"status"`
	RequestedTime  time.Time     `db:"requested_time" json:"requested_time"`
	ExpiresAt      time.Time     `db:"expires_at" json:"expires_at"`
	ResolvedBy     *int          `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolutionNote *string       `db:"resolution_note" json:"resolution_note,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

type SubmitRequest struct {
	SlotID         int    `json:"slot_id" binding:"required"`
	ServiceID      int    `json:"service_id" binding:"required"`
	PatientName    string `json:"patient_name" binding:"required"`
	PatientPhone   string `json:"patient_phone" binding:"required"`
	PatientEmail   string `json:"patient_email,omitempty" binding:"omitempty,email"`
	PatientAge     *int   `json:"patient_age,omitempty" binding:"omitempty,min=0,max=130"`
	PatientGender  string `json:"patient_gender,omitempty"`
	ChiefComplaint string `json:"chief_complaint,omitempty"`
	Symptoms       string `json:"symptoms,omitempty"`
	MedicalHistory string `json:"medical_history,omitempty"`
	Medications    string `json:"medications,omitempty"`
	Allergies      string `json:"allergies,omitempty"`
	UrgencyLevel   string `json:"urgency_level,omitempty" binding:"omitempty,oneof=low normal high urgent"`
}

type ResolveRequest struct {
	Note string `json:"note,omitempty"`
}

type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type SubmitResponse struct {
	Request   *ReservationRequest `json:"request"`
	Reference string              `json:"reference"`
	ExpiresAt time.Time           `json:"expires_at"`
}
