package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leobar37/welllink-sub003/internal/logger"
	"github.com/leobar37/welllink-sub003/internal/metrics"
	"github.com/leobar37/welllink-sub003/internal/profile"
)

const (
	// maxGenerationDays bounds a single generation or preview range.
	maxGenerationDays = 31

	// nextWeekOffsetDays is how far out the default window starts.
	nextWeekOffsetDays = 7
	nextWeekSpanDays   = 7
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrRuleNotFound    = errors.New("availability rule not found")
	ErrSlotNotFound    = errors.New("time slot not found")
	ErrServiceNotFound = errors.New("service not found for profile")
	ErrInvalidRange    = errors.New("end date must not be before start date")
	ErrRangeTooLarge   = fmt.Errorf("date range cannot exceed %d days", maxGenerationDays)
)

type Service interface {
	CreateRule(ctx context.Context, profileID int, req RuleRequest) (*AvailabilityRule, error)
	ListRules(ctx context.Context, profileID int) ([]AvailabilityRule, error)
	GetRule(ctx context.Context, profileID, ruleID int) (*AvailabilityRule, error)
	UpdateRule(ctx context.Context, profileID, ruleID int, req RuleRequest) (*AvailabilityRule, error)
	DeactivateRule(ctx context.Context, profileID, ruleID int) error

	Generate(ctx context.Context, profileID, serviceID int, from, to time.Time) (*GenerationResult, error)
	GenerateFromRequest(ctx context.Context, profileID int, req GenerateRequest) (*GenerationResult, error)
	Preview(ctx context.Context, profileID int, from, to time.Time) ([]PreviewEntry, error)

	ListSlots(ctx context.Context, profileID int, from, to time.Time) ([]TimeSlotWithAvailability, error)
	BlockSlot(ctx context.Context, profileID, slotID int) error
	UnblockSlot(ctx context.Context, profileID, slotID int) error
	ExpireOverdueSlots(ctx context.Context) (int, error)
}

type service struct {
	repo        Repository
	profileRepo profile.Repository
	now         func() time.Time
}

func NewService(repo Repository, profileRepo profile.Repository) Service {
	return &service{
		repo:        repo,
		profileRepo: profileRepo,
		now:         time.Now,
	}
}

func (s *service) CreateRule(ctx context.Context, profileID int, req RuleRequest) (*AvailabilityRule, error) {
	if err := ValidateRule(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	return s.repo.CreateRule(ctx, profileID, req)
}

func (s *service) ListRules(ctx context.Context, profileID int) ([]AvailabilityRule, error) {
	return s.repo.GetRulesByProfile(ctx, profileID, false)
}

func (s *service) GetRule(ctx context.Context, profileID, ruleID int) (*AvailabilityRule, error) {
	rule, err := s.repo.GetRuleByID(ctx, ruleID)
	if err != nil {
		return nil, ErrRuleNotFound
	}
	if rule.ProfileID != profileID {
		return nil, ErrRuleNotFound
	}
	return rule, nil
}

func (s *service) UpdateRule(ctx context.Context, profileID, ruleID int, req RuleRequest) (*AvailabilityRule, error) {
	if err := ValidateRule(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	rule, err := s.repo.UpdateRule(ctx, profileID, ruleID, req)
	if err != nil {
		return nil, ErrRuleNotFound
	}
	return rule, nil
}

func (s *service) DeactivateRule(ctx context.Context, profileID, ruleID int) error {
	err := s.repo.DeactivateRule(ctx, profileID, ruleID)
	if err != nil {
		if err == ErrRuleNotFoundOrInactive {
			return ErrRuleNotFound
		}
		return err
	}
	return nil
}

// Generate materializes slots for every active rule occurrence in [from, to].
// Individual insert failures are counted, not fatal; duplicates from an
// earlier run count as skipped, which keeps regeneration idempotent.
func (s *service) Generate(ctx context.Context, profileID, serviceID int, from, to time.Time) (*GenerationResult, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}

	svc, err := s.profileRepo.GetServiceByID(ctx, serviceID)
	if err != nil || svc.ProfileID != profileID || !svc.IsActive {
		return nil, ErrServiceNotFound
	}

	rules, err := s.repo.GetRulesByProfile(ctx, profileID, true)
	if err != nil {
		return nil, err
	}

	result := &GenerationResult{}
	if len(rules) == 0 {
		return result, nil
	}

	eachDay(from, to, func(date time.Time) {
		for i := range rules {
			rule := &rules[i]
			if !rule.AppliesOn(date) {
				continue
			}

			windows, err := rule.ExpandOn(date)
			if err != nil {
				logger.Error("skipping unexpandable rule",
					"rule_id", rule.ID, "date", date.Format("2006-01-02"), "error", err)
				result.Failed++
				continue
			}

			for _, w := range windows {
				created, err := s.repo.InsertSlot(ctx, profileID, serviceID, w.Start, w.End, rule.MaxAppointmentsPerSlot)
				if err != nil {
					logger.Error("failed to insert slot",
						"profile_id", profileID, "start", w.Start, "error", err)
					result.Failed++
					continue
				}
				if created {
					result.Created++
				} else {
					result.Skipped++
				}
			}
		}
	})

	metrics.RecordSlotsGenerated(result.Created, result.Skipped, result.Failed)
	logger.Info("slot generation finished",
		"profile_id", profileID, "service_id", serviceID,
		"created", result.Created, "skipped", result.Skipped, "failed", result.Failed)

	return result, nil
}

// GenerateFromRequest resolves the date range (defaulting to the week that
// starts seven days from now) and runs Generate.
func (s *service) GenerateFromRequest(ctx context.Context, profileID int, req GenerateRequest) (*GenerationResult, error) {
	from, to, err := s.resolveRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	return s.Generate(ctx, profileID, req.ServiceID, from, to)
}

// Preview computes what Generate would produce for the range without writing
// anything. It reads rules only; counts per rule-date must match what a
// subsequent Generate persists.
func (s *service) Preview(ctx context.Context, profileID int, from, to time.Time) ([]PreviewEntry, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}

	rules, err := s.repo.GetRulesByProfile(ctx, profileID, true)
	if err != nil {
		return nil, err
	}

	entries := []PreviewEntry{}
	eachDay(from, to, func(date time.Time) {
		for i := range rules {
			rule := &rules[i]
			if !rule.AppliesOn(date) {
				continue
			}

			windows, err := rule.ExpandOn(date)
			if err != nil || len(windows) == 0 {
				continue
			}

			entries = append(entries, PreviewEntry{
				Date:      date.Format("2006-01-02"),
				DayOfWeek: rule.DayOfWeek,
				StartTime: rule.StartTime,
				EndTime:   rule.EndTime,
				SlotCount: len(windows),
			})
		}
	})

	return entries, nil
}

func (s *service) ListSlots(ctx context.Context, profileID int, from, to time.Time) ([]TimeSlotWithAvailability, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}

	slots, err := s.repo.GetSlotsByProfile(ctx, profileID, from, to)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := make([]TimeSlotWithAvailability, 0, len(slots))
	for _, slot := range slots {
		result = append(result, TimeSlotWithAvailability{
			TimeSlot:  slot,
			Remaining: slot.Remaining(),
			Bookable:  slot.BookableAt(now),
		})
	}

	return result, nil
}

func (s *service) BlockSlot(ctx context.Context, profileID, slotID int) error {
	return s.repo.BlockSlot(ctx, profileID, slotID)
}

func (s *service) UnblockSlot(ctx context.Context, profileID, slotID int) error {
	return s.repo.UnblockSlot(ctx, profileID, slotID)
}

func (s *service) ExpireOverdueSlots(ctx context.Context) (int, error) {
	expired, err := s.repo.ExpireDueSlots(ctx, s.now())
	if err != nil {
		return 0, err
	}

	if expired > 0 {
		metrics.RecordSlotsExpired(expired)
		logger.Info("expired overdue slots", "count", expired)
	}

	return expired, nil
}

func (s *service) resolveRange(startDate, endDate string) (time.Time, time.Time, error) {
	if startDate == "" && endDate == "" {
		from := truncateToDay(s.now()).AddDate(0, 0, nextWeekOffsetDays)
		return from, from.AddDate(0, 0, nextWeekSpanDays-1), nil
	}

	from, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid start_date %q", ErrValidation, startDate)
	}

	to, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid end_date %q", ErrValidation, endDate)
	}

	return from, to, nil
}

func checkRange(from, to time.Time) error {
	if to.Before(from) {
		return ErrInvalidRange
	}
	if to.Sub(from) > maxGenerationDays*24*time.Hour {
		return ErrRangeTooLarge
	}
	return nil
}
