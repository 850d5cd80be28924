package reservation

import (
	"context"
	"time"
)

// CreateParams carries everything a slot claim + request insert needs.
type CreateParams struct {
	Reference string
	SlotID    int
	ServiceID int
	ExpiresAt time.Time
	Submit    SubmitRequest
	Urgency   UrgencyLevel
}

type Repository interface {
	// Create claims one unit of slot capacity and inserts the pending
	// request in a single transaction. Returns ErrSlotNotClaimable when the
	// guarded increment matches no row.
	Create(ctx context.Context, params CreateParams) (*ReservationRequest, error)

	GetByID(ctx context.Context, id int) (*ReservationRequest, error)
	GetByReference(ctx context.Context, reference string) (*ReservationRequest, error)
	ListByProfile(ctx context.Context, profileID int, status string) ([]ReservationRequest, error)

	// Resolve performs the compare-and-set from pending to a terminal
	// status. ok=false means another actor already resolved the request;
	// the caller must not touch the slot counter in that case.
	Resolve(ctx context.Context, requestID int, status RequestStatus, resolvedBy *int, note *string) (slotID int, ok bool, err error)

	// ReleaseSlotCapacity undoes one claimed unit after a reject/expire.
	ReleaseSlotCapacity(ctx context.Context, slotID int) error

	// MarkSlotReserved flips a fully-consumed slot to reserved after an
	// approval; a slot with remaining capacity is left bookable.
	MarkSlotReserved(ctx context.Context, slotID int) error

	ListDueExpiries(ctx context.Context, now time.Time, limit int) ([]int, error)
	CountPending(ctx context.Context) (int, error)
}
