package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/leobar37/welllink-sub003/internal/availability"
	"github.com/leobar37/welllink-sub003/internal/logger"
	"github.com/leobar37/welllink-sub003/internal/metrics"
	"github.com/leobar37/welllink-sub003/internal/profile"

	"github.com/google/uuid"
)

const expiryBatchSize = 100

var (
	ErrSlotNotFound     = errors.New("time slot not found")
	ErrSlotMismatch     = errors.New("slot does not belong to the requested service")
	ErrSlotNotBookable  = errors.New("slot is not open for booking")
	ErrCapacityExceeded = errors.New("slot capacity exceeded")
	ErrRequestNotFound  = errors.New("reservation request not found")
	ErrAlreadyResolved  = errors.New("reservation request already resolved")
)

// Notifier is the outbound edge for submit/approve/reject events. Delivery
// is the collaborator's concern; failures here are logged, never surfaced to
// the visitor.
type Notifier interface {
	ReservationReceived(ctx context.Context, advisorPhone, patientName string, requestedTime time.Time, reference string) error
	ReservationApproved(ctx context.Context, patientPhone, patientName string, requestedTime time.Time) error
	ReservationRejected(ctx context.Context, patientPhone, patientName, reason string) error
}

type Service interface {
	Submit(ctx context.Context, profileID int, req SubmitRequest) (*ReservationRequest, error)
	Approve(ctx context.Context, profileID, requestID int, req ResolveRequest) (*ReservationRequest, error)
	Reject(ctx context.Context, profileID, requestID int, req RejectRequest) (*ReservationRequest, error)
	Get(ctx context.Context, profileID, requestID int) (*ReservationRequest, error)
	GetByReference(ctx context.Context, reference string) (*ReservationRequest, error)
	ListByProfile(ctx context.Context, profileID int, status string) ([]ReservationRequest, error)
	ExpireDue(ctx context.Context) (int, error)
}

type service struct {
	repo        Repository
	slotRepo    availability.Repository
	profileRepo profile.Repository
	notifier    Notifier
	ttl         time.Duration
	now         func() time.Time
}

func NewService(repo Repository, slotRepo availability.Repository, profileRepo profile.Repository, notifier Notifier, ttl time.Duration) Service {
	return &service{
		repo:        repo,
		slotRepo:    slotRepo,
		profileRepo: profileRepo,
		notifier:    notifier,
		ttl:         ttl,
		now:         time.Now,
	}
}

// Submit claims one unit of slot capacity and stores the pending request.
// The claim itself is a guarded conditional update; the reads before and
// after only classify failures for the caller.
func (s *service) Submit(ctx context.Context, profileID int, req SubmitRequest) (*ReservationRequest, error) {
	slot, err := s.slotRepo.GetSlotByID(ctx, req.SlotID)
	if err != nil {
		return nil, ErrSlotNotFound
	}
	if slot.ProfileID != profileID {
		return nil, ErrSlotNotFound
	}
	if slot.ServiceID != req.ServiceID {
		return nil, ErrSlotMismatch
	}

	urgency := UrgencyLevel(req.UrgencyLevel)
	if urgency == "" {
		urgency = UrgencyNormal
	}

	params := CreateParams{
		Reference: uuid.NewString(),
		SlotID:    req.SlotID,
		ServiceID: req.ServiceID,
		ExpiresAt: s.now().Add(s.ttl),
		Submit:    req,
		Urgency:   urgency,
	}

	request, err := s.repo.Create(ctx, params)
	if err != nil {
		if err == ErrSlotNotClaimable {
			return nil, s.classifyClaimFailure(ctx, req.SlotID)
		}
		return nil, err
	}

	metrics.RecordReservation(string(StatusPending))
	s.refreshPendingGauge(ctx)

	if advisor, err := s.profileRepo.FindByID(ctx, profileID); err == nil {
		if err := s.notifier.ReservationReceived(ctx, advisor.Phone, request.PatientName, request.RequestedTime, request.Reference); err != nil {
			logger.Error("failed to queue advisor notification", "request_id", request.ID, "error", err)
		}
	}

	return request, nil
}

// classifyClaimFailure re-reads the slot to tell the visitor why the claim
// missed: full capacity reads as CapacityExceeded, anything else as
// SlotNotBookable.
func (s *service) classifyClaimFailure(ctx context.Context, slotID int) error {
	slot, err := s.slotRepo.GetSlotByID(ctx, slotID)
	if err != nil {
		return ErrSlotNotFound
	}

	if slot.CurrentReservations >= slot.MaxReservations {
		return ErrCapacityExceeded
	}
	return ErrSlotNotBookable
}

func (s *service) Approve(ctx context.Context, profileID, requestID int, req ResolveRequest) (*ReservationRequest, error) {
	request, err := s.ownedRequest(ctx, profileID, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status.Terminal() {
		return nil, ErrAlreadyResolved
	}

	note := nullString(req.Note)
	slotID, ok, err := s.repo.Resolve(ctx, requestID, StatusApproved, &profileID, note)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyResolved
	}

	// Approval keeps the claimed capacity; the slot only flips to reserved
	// once the counter has consumed it all.
	if err := s.repo.MarkSlotReserved(ctx, slotID); err != nil {
		logger.Error("approved request but failed to update slot status", "slot_id", slotID, "error", err)
	}

	metrics.RecordReservation(string(StatusApproved))
	s.refreshPendingGauge(ctx)
	s.notifyResolution(ctx, requestID, StatusApproved, "")

	return s.repo.GetByID(ctx, requestID)
}

func (s *service) Reject(ctx context.Context, profileID, requestID int, req RejectRequest) (*ReservationRequest, error) {
	request, err := s.ownedRequest(ctx, profileID, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status.Terminal() {
		return nil, ErrAlreadyResolved
	}

	reason := nullString(req.Reason)
	slotID, ok, err := s.repo.Resolve(ctx, requestID, StatusRejected, &profileID, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyResolved
	}

	if err := s.repo.ReleaseSlotCapacity(ctx, slotID); err != nil {
		logger.Error("rejected request but failed to release slot capacity", "slot_id", slotID, "error", err)
	}

	metrics.RecordReservation(string(StatusRejected))
	s.refreshPendingGauge(ctx)
	s.notifyResolution(ctx, requestID, StatusRejected, req.Reason)

	return s.repo.GetByID(ctx, requestID)
}

func (s *service) Get(ctx context.Context, profileID, requestID int) (*ReservationRequest, error) {
	return s.ownedRequest(ctx, profileID, requestID)
}

func (s *service) GetByReference(ctx context.Context, reference string) (*ReservationRequest, error) {
	request, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return nil, ErrRequestNotFound
	}
	return request, nil
}

func (s *service) ListByProfile(ctx context.Context, profileID int, status string) ([]ReservationRequest, error) {
	return s.repo.ListByProfile(ctx, profileID, status)
}

// ExpireDue resolves pending requests past their deadline. Each expiry goes
// through the same compare-and-set as a human resolution, so a request an
// advisor just approved or rejected is skipped and its slot counter is never
// double-decremented, even when two sweeps overlap.
func (s *service) ExpireDue(ctx context.Context) (int, error) {
	ids, err := s.repo.ListDueExpiries(ctx, s.now(), expiryBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		slotID, ok, err := s.repo.Resolve(ctx, id, StatusExpired, nil, nil)
		if err != nil {
			logger.Error("failed to expire request", "request_id", id, "error", err)
			continue
		}
		if !ok {
			// lost the race to approve/reject; nothing to release
			continue
		}

		if err := s.repo.ReleaseSlotCapacity(ctx, slotID); err != nil {
			logger.Error("expired request but failed to release slot capacity", "slot_id", slotID, "error", err)
		}
		expired++
	}

	if expired > 0 {
		metrics.RecordReservationsExpired(expired)
		logger.Info("expired pending reservation requests", "count", expired)
	}
	s.refreshPendingGauge(ctx)

	return expired, nil
}

func (s *service) ownedRequest(ctx context.Context, profileID, requestID int) (*ReservationRequest, error) {
	request, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, ErrRequestNotFound
	}
	if request.ProfileID != profileID {
		return nil, ErrRequestNotFound
	}
	return request, nil
}

func (s *service) notifyResolution(ctx context.Context, requestID int, status RequestStatus, reason string) {
	request, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return
	}

	switch status {
	case StatusApproved:
		err = s.notifier.ReservationApproved(ctx, request.PatientPhone, request.PatientName, request.RequestedTime)
	case StatusRejected:
		err = s.notifier.ReservationRejected(ctx, request.PatientPhone, request.PatientName, reason)
	default:
		return
	}

	if err != nil {
		logger.Error("failed to queue patient notification", "request_id", requestID, "error", err)
	}
}

func (s *service) refreshPendingGauge(ctx context.Context) {
	if count, err := s.repo.CountPending(ctx); err == nil {
		metrics.PendingReservations.Set(float64(count))
	}
}
