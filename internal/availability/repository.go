package availability

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	ErrRuleNotFoundOrInactive = errors.New("rule not found or already inactive")
	ErrSlotNotBlockable       = errors.New("slot cannot be blocked in its current status")
	ErrSlotNotBlocked         = errors.New("slot is not blocked")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateRule(ctx context.Context, profileID int, req RuleRequest) (*AvailabilityRule, error) {
	query := `
		INSERT INTO availability_rules
			(profile_id, day_of_week, start_time, end_time, slot_duration, buffer_time, max_appointments_per_slot, effective_from, effective_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, profile_id, day_of_week, start_time, end_time, slot_duration, buffer_time, max_appointments_per_slot, is_active, effective_from, effective_to, created_at, updated_at
	`

	effectiveFrom, err := parseOptionalDate(req.EffectiveFrom)
	if err != nil {
		return nil, err
	}
	effectiveTo, err := parseOptionalDate(req.EffectiveTo)
	if err != nil {
		return nil, err
	}

	var rule AvailabilityRule
	err = r.db.GetContext(ctx, &rule, query,
		profileID, req.DayOfWeek, req.StartTime, req.EndTime,
		req.SlotDuration, req.BufferTime, req.MaxAppointmentsPerSlot,
		effectiveFrom, effectiveTo,
	)
	if err != nil {
		return nil, err
	}

	return &rule, nil
}

func (r *repository) GetRuleByID(ctx context.Context, id int) (*AvailabilityRule, error) {
	query := `
		SELECT id, profile_id, day_of_week, start_time, end_time, slot_duration, buffer_time, max_appointments_per_slot, is_active, effective_from, effective_to, created_at, updated_at
		FROM availability_rules
		WHERE id = $1
	`

	var rule AvailabilityRule
	err := r.db.GetContext(ctx, &rule, query, id)
	if err != nil {
		return nil, err
	}

	return &rule, nil
}

func (r *repository) GetRulesByProfile(ctx context.Context, profileID int, onlyActive bool) ([]AvailabilityRule, error) {
	query := `
		SELECT id, profile_id, day_of_week, start_time, end_time, slot_duration, buffer_time, max_appointments_per_slot, is_active, effective_from, effective_to, created_at, updated_at
		FROM availability_rules
		WHERE profile_id = $1
	`

	if onlyActive {
		query += " AND is_active = true"
	}

	query += " ORDER BY day_of_week ASC, start_time ASC"

	var rules []AvailabilityRule
	err := r.db.SelectContext(ctx, &rules, query, profileID)
	if err != nil {
		return nil, err
	}

	return rules, nil
}

func (r *repository) UpdateRule(ctx context.Context, profileID, ruleID int, req RuleRequest) (*AvailabilityRule, error) {
	query := `
		UPDATE availability_rules
		SET day_of_week = $3,
		    start_time = $4,
		    end_time = $5,
		    slot_duration = $6,
		    buffer_time = $7,
		    max_appointments_per_slot = $8,
		    effective_from = $9,
		    effective_to = $10,
		    updated_at = NOW()
		WHERE id = $1 AND profile_id = $2
		RETURNING id, profile_id, day_of_week, start_time, end_time, slot_duration, buffer_time, max_appointments_per_slot, is_active, effective_from, effective_to, created_at, updated_at
	`

	effectiveFrom, err := parseOptionalDate(req.EffectiveFrom)
	if err != nil {
		return nil, err
	}
	effectiveTo, err := parseOptionalDate(req.EffectiveTo)
	if err != nil {
		return nil, err
	}

	var rule AvailabilityRule
	err = r.db.GetContext(ctx, &rule, query,
		ruleID, profileID, req.DayOfWeek, req.StartTime, req.EndTime,
		req.SlotDuration, req.BufferTime, req.MaxAppointmentsPerSlot,
		effectiveFrom, effectiveTo,
	)
	if err != nil {
		return nil, err
	}

	return &rule, nil
}

func (r *repository) DeactivateRule(ctx context.Context, profileID, ruleID int) error {
	query := `
		UPDATE availability_rules
		SET is_active = false, updated_at = NOW()
		WHERE id = $1 AND profile_id = $2 AND is_active = true
	`

	result, err := r.db.ExecContext(ctx, query, ruleID, profileID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrRuleNotFoundOrInactive
	}

	return nil
}

// InsertSlot creates one generated slot. The unique key on
// (profile_id, service_id, start_time) makes regeneration idempotent:
// a conflicting insert is a no-op and reports created=false.
func (r *repository) InsertSlot(ctx context.Context, profileID, serviceID int, start, end time.Time, maxReservations int) (bool, error) {
	query := `
		INSERT INTO time_slots (profile_id, service_id, start_time, end_time, max_reservations, current_reservations, status)
		VALUES ($1, $2, $3, $4, $5, 0, 'available')
		ON CONFLICT (profile_id, service_id, start_time) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query, profileID, serviceID, start, end, maxReservations)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (r *repository) GetSlotByID(ctx context.Context, id int) (*TimeSlot, error) {
	query := `
		SELECT id, profile_id, service_id, start_time, end_time, max_reservations, current_reservations, status, created_at, updated_at
		FROM time_slots
		WHERE id = $1
	`

	var slot TimeSlot
	err := r.db.GetContext(ctx, &slot, query, id)
	if err != nil {
		return nil, err
	}

	return &slot, nil
}

func (r *repository) GetSlotsByProfile(ctx context.Context, profileID int, from, to time.Time) ([]TimeSlot, error) {
	query := `
		SELECT id, profile_id, service_id, start_time, end_time, max_reservations, current_reservations, status, created_at, updated_at
		FROM time_slots
		WHERE profile_id = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time ASC
	`

	var slots []TimeSlot
	err := r.db.SelectContext(ctx, &slots, query, profileID, from, to)
	if err != nil {
		return nil, err
	}

	return slots, nil
}

func (r *repository) BlockSlot(ctx context.Context, profileID, slotID int) error {
	query := `
		UPDATE time_slots
		SET status = 'blocked', updated_at = NOW()
		WHERE id = $1 AND profile_id = $2 AND status IN ('available', 'pending_approval')
	`

	result, err := r.db.ExecContext(ctx, query, slotID, profileID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrSlotNotBlockable
	}

	return nil
}

// UnblockSlot reverts a block. The restored status is re-derived from the
// reservation counter rather than trusting what was stored before the block.
func (r *repository) UnblockSlot(ctx context.Context, profileID, slotID int) error {
	query := `
		UPDATE time_slots
		SET status = CASE WHEN current_reservations >= max_reservations THEN 'pending_approval' ELSE 'available' END,
		    updated_at = NOW()
		WHERE id = $1 AND profile_id = $2 AND status = 'blocked'
	`

	result, err := r.db.ExecContext(ctx, query, slotID, profileID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrSlotNotBlocked
	}

	return nil
}

// ExpireDueSlots marks still-open slots whose start has passed. Guarded on
// status so a second sweep is a no-op.
func (r *repository) ExpireDueSlots(ctx context.Context, now time.Time) (int, error) {
	query := `
		UPDATE time_slots
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'available' AND start_time <= $1
	`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(rowsAffected), nil
}
