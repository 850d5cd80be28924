package reservation

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrSlotNotClaimable = errors.New("slot has no claimable capacity")

const requestColumns = `id, reference, profile_id, slot_id, service_id, patient_name, patient_phone, patient_email, patient_age, patient_gender, chief_complaint, symptoms, medical_history, medications, allergies, urgency_level, status, requested_time, expires_at, resolved_by, resolution_note, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Create runs the capacity claim and the request insert in one transaction.
// The claim is a conditional increment: it only matches a bookable slot with
// room left, so concurrent submissions can never oversell the last unit.
func (r *repository) Create(ctx context.Context, params CreateParams) (*ReservationRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	claimQuery := `
		UPDATE time_slots
		SET current_reservations = current_reservations + 1,
		    status = CASE WHEN current_reservations + 1 >= max_reservations THEN 'pending_approval' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1
		  AND service_id = $2
		  AND status = 'available'
		  AND current_reservations < max_reservations
		  AND start_time > NOW()
		RETURNING profile_id, start_time
	`

	var claimed struct {
		ProfileID int       `db:"profile_id"`
		StartTime time.Time `db:"start_time"`
	}
	err = tx.GetContext(ctx, &claimed, claimQuery, params.SlotID, params.ServiceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSlotNotClaimable
		}
		return nil, err
	}

	insertQuery := `
		INSERT INTO reservation_requests
			(reference, profile_id, slot_id, service_id, patient_name, patient_phone, patient_email, patient_age, patient_gender, chief_complaint, symptoms, medical_history, medications, allergies, urgency_level, status, requested_time, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, 'pending', $16, $17)
		RETURNING ` + requestColumns

	sub := params.Submit
	var request ReservationRequest
	err = tx.GetContext(ctx, &request, insertQuery,
		params.Reference, claimed.ProfileID, params.SlotID, params.ServiceID,
		sub.PatientName, sub.PatientPhone,
		nullString(sub.PatientEmail), sub.PatientAge, nullString(sub.PatientGender),
		nullString(sub.ChiefComplaint), nullString(sub.Symptoms), nullString(sub.MedicalHistory),
		nullString(sub.Medications), nullString(sub.Allergies),
		string(params.Urgency), claimed.StartTime, params.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &request, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*ReservationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM reservation_requests
		WHERE id = $1
	`

	var request ReservationRequest
	err := r.db.GetContext(ctx, &request, query, id)
	if err != nil {
		return nil, err
	}

	return &request, nil
}

func (r *repository) GetByReference(ctx context.Context, reference string) (*ReservationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM reservation_requests
		WHERE reference = $1
	`

	var request ReservationRequest
	err := r.db.GetContext(ctx, &request, query, reference)
	if err != nil {
		return nil, err
	}

	return &request, nil
}

func (r *repository) ListByProfile(ctx context.Context, profileID int, status string) ([]ReservationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM reservation_requests
		WHERE profile_id = $1
	`
	args := []interface{}{profileID}

	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
	}

	query += " ORDER BY created_at DESC"

	var requests []ReservationRequest
	err := r.db.SelectContext(ctx, &requests, query, args...)
	if err != nil {
		return nil, err
	}

	return requests, nil
}

// Resolve is the single writer gate for request resolution: only the caller
// whose compare-and-set matches the pending row may decrement the slot
// counter afterwards.
func (r *repository) Resolve(ctx context.Context, requestID int, status RequestStatus, resolvedBy *int, note *string) (int, bool, error) {
	query := `
		UPDATE reservation_requests
		SET status = $2, resolved_by = $3, resolution_note = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING slot_id
	`

	var slotID int
	err := r.db.GetContext(ctx, &slotID, query, requestID, string(status), resolvedBy, note)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}

	return slotID, true, nil
}

// ReleaseSlotCapacity decrements the counter and re-derives the slot status:
// a past-start slot expires, an at-capacity marker reverts to available, a
// blocked slot stays blocked.
func (r *repository) ReleaseSlotCapacity(ctx context.Context, slotID int) error {
	query := `
		UPDATE time_slots
		SET current_reservations = GREATEST(current_reservations - 1, 0),
		    status = CASE
		        WHEN start_time <= NOW() THEN 'expired'
		        WHEN status IN ('pending_approval', 'reserved') THEN 'available'
		        ELSE status
		    END,
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, slotID)
	return err
}

func (r *repository) MarkSlotReserved(ctx context.Context, slotID int) error {
	query := `
		UPDATE time_slots
		SET status = 'reserved', updated_at = NOW()
		WHERE id = $1 AND current_reservations >= max_reservations AND status <> 'blocked'
	`

	_, err := r.db.ExecContext(ctx, query, slotID)
	return err
}

func (r *repository) ListDueExpiries(ctx context.Context, now time.Time, limit int) ([]int, error) {
	query := `
		SELECT id
		FROM reservation_requests
		WHERE status = 'pending' AND expires_at <= $1
		ORDER BY expires_at ASC
		LIMIT $2
	`

	var ids []int
	err := r.db.SelectContext(ctx, &ids, query, now, limit)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *repository) CountPending(ctx context.Context) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM reservation_requests
		WHERE status = 'pending'
	`

	var count int
	err := r.db.GetContext(ctx, &count, query)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
