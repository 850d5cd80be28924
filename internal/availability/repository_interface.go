package availability

import (
	"context"
	"time"
)

type Repository interface {
	CreateRule(ctx context.Context, profileID int, req RuleRequest) (*AvailabilityRule, error)
	GetRuleByID(ctx context.Context, id int) (*AvailabilityRule, error)
	GetRulesByProfile(ctx context.Context, profileID int, onlyActive bool) ([]AvailabilityRule, error)
	UpdateRule(ctx context.Context, profileID, ruleID int, req RuleRequest) (*AvailabilityRule, error)
	DeactivateRule(ctx context.Context, profileID, ruleID int) error

	InsertSlot(ctx context.Context, profileID, serviceID int, start, end time.Time, maxReservations int) (bool, error)
	GetSlotByID(ctx context.Context, id int) (*TimeSlot, error)
	GetSlotsByProfile(ctx context.Context, profileID int, from, to time.Time) ([]TimeSlot, error)
	BlockSlot(ctx context.Context, profileID, slotID int) error
	UnblockSlot(ctx context.Context, profileID, slotID int) error
	ExpireDueSlots(ctx context.Context, now time.Time) (int, error)
}
