package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leobar37/welllink-sub003/internal/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepo struct{ mock.Mock }
type MockProfileRepo struct{ mock.Mock }

func (m *MockRepo) CreateRule(ctx context.Context, profileID int, req RuleRequest) (*AvailabilityRule, error) {
	args := m.Called(ctx, profileID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AvailabilityRule), args.Error(1)
}

func (m *MockRepo) GetRuleByID(ctx context.Context, id int) (*AvailabilityRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AvailabilityRule), args.Error(1)
}

func (m *MockRepo) GetRulesByProfile(ctx context.Context, profileID int, onlyActive bool) ([]AvailabilityRule, error) {
	args := m.Called(ctx, profileID, onlyActive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]AvailabilityRule), args.Error(1)
}

func (m *MockRepo) UpdateRule(ctx context.Context, profileID, ruleID int, req RuleRequest) (*AvailabilityRule, error) {
	args := m.Called(ctx, profileID, ruleID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AvailabilityRule), args.Error(1)
}

func (m *MockRepo) DeactivateRule(ctx context.Context, profileID, ruleID int) error {
	return m.Called(ctx, profileID, ruleID).Error(0)
}

func (m *MockRepo) InsertSlot(ctx context.Context, profileID, serviceID int, start, end time.Time, maxReservations int) (bool, error) {
	args := m.Called(ctx, profileID, serviceID, start, end, maxReservations)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepo) GetSlotByID(ctx context.Context, id int) (*TimeSlot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TimeSlot), args.Error(1)
}

func (m *MockRepo) GetSlotsByProfile(ctx context.Context, profileID int, from, to time.Time) ([]TimeSlot, error) {
	args := m.Called(ctx, profileID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]TimeSlot), args.Error(1)
}

func (m *MockRepo) BlockSlot(ctx context.Context, profileID, slotID int) error {
	return m.Called(ctx, profileID, slotID).Error(0)
}

func (m *MockRepo) UnblockSlot(ctx context.Context, profileID, slotID int) error {
	return m.Called(ctx, profileID, slotID).Error(0)
}

func (m *MockRepo) ExpireDueSlots(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

func (m *MockProfileRepo) Create(ctx context.Context, slug, displayName, email, phone, passwordHash, role string) (*profile.Profile, error) {
	args := m.Called(ctx, slug, displayName, email, phone, passwordHash, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Profile), args.Error(1)
}

func (m *MockProfileRepo) FindByID(ctx context.Context, id int) (*profile.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Profile), args.Error(1)
}

func (m *MockProfileRepo) FindByEmail(ctx context.Context, email string) (*profile.Profile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Profile), args.Error(1)
}

func (m *MockProfileRepo) FindBySlug(ctx context.Context, slug string) (*profile.Profile, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Profile), args.Error(1)
}

func (m *MockProfileRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockProfileRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockProfileRepo) CreateService(ctx context.Context, profileID int, name string, durationMinutes int, priceCents int64) (*profile.AdvisorService, error) {
	args := m.Called(ctx, profileID, name, durationMinutes, priceCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.AdvisorService), args.Error(1)
}

func (m *MockProfileRepo) GetServiceByID(ctx context.Context, id int) (*profile.AdvisorService, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.AdvisorService), args.Error(1)
}

func (m *MockProfileRepo) GetServicesByProfile(ctx context.Context, profileID int, onlyActive bool) ([]profile.AdvisorService, error) {
	args := m.Called(ctx, profileID, onlyActive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]profile.AdvisorService), args.Error(1)
}

func (m *MockProfileRepo) DeactivateService(ctx context.Context, profileID, serviceID int) error {
	return m.Called(ctx, profileID, serviceID).Error(0)
}

func newTestService(repo Repository, profileRepo profile.Repository, now time.Time) *service {
	return &service{
		repo:        repo,
		profileRepo: profileRepo,
		now:         func() time.Time { return now },
	}
}

func activeService(profileID int) *profile.AdvisorService {
	return &profile.AdvisorService{
		ID:              7,
		ProfileID:       profileID,
		Name:            "Nutrition consult",
		DurationMinutes: 30,
		IsActive:        true,
	}
}

func TestGenerateCountsCreatedAndSkipped(t *testing.T) {
	repo := new(MockRepo)
	profileRepo := new(MockProfileRepo)

	profileRepo.On("GetServiceByID", mock.Anything, 7).Return(activeService(1), nil)

	repo.On("GetRulesByProfile", mock.Anything, 1, true).Return([]AvailabilityRule{
		{
			ID:                     1,
			ProfileID:              1,
			DayOfWeek:              1,
			StartTime:              "09:00",
			EndTime:                "10:00",
			SlotDuration:           20,
			BufferTime:             5,
			MaxAppointmentsPerSlot: 2,
			IsActive:               true,
		},
	}, nil)

	// two windows on the single Monday in range; the first insert creates,
	// the second hits an existing row
	repo.On("InsertSlot", mock.Anything, 1, 7, mock.Anything, mock.Anything, 2).Return(true, nil).Once()
	repo.On("InsertSlot", mock.Anything, 1, 7, mock.Anything, mock.Anything, 2).Return(false, nil).Once()

	svc := newTestService(repo, profileRepo, time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))

	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	result, err := svc.Generate(context.Background(), 1, 7, monday, monday)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Failed)
	repo.AssertExpectations(t)
}

func TestGenerateCountsInsertFailures(t *testing.T) {
	repo := new(MockRepo)
	profileRepo := new(MockProfileRepo)

	profileRepo.On("GetServiceByID", mock.Anything, 7).Return(activeService(1), nil)
	repo.On("GetRulesByProfile", mock.Anything, 1, true).Return([]AvailabilityRule{
		{
			ID: 1, ProfileID: 1, DayOfWeek: 1,
			StartTime: "09:00", EndTime: "09:30",
			SlotDuration: 30, MaxAppointmentsPerSlot: 1, IsActive: true,
		},
	}, nil)

	repo.On("InsertSlot", mock.Anything, 1, 7, mock.Anything, mock.Anything, 1).
		Return(false, errors.New("connection reset"))

	svc := newTestService(repo, profileRepo, time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))

	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	result, err := svc.Generate(context.Background(), 1, 7, monday, monday)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Failed)
}

func TestGenerateNoActiveRules(t *testing.T) {
	repo := new(MockRepo)
	profileRepo := new(MockProfileRepo)

	profileRepo.On("GetServiceByID", mock.Anything, 7).Return(activeService(1), nil)
	repo.On("GetRulesByProfile", mock.Anything, 1, true).Return([]AvailabilityRule{}, nil)

	svc := newTestService(repo, profileRepo, time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))

	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	result, err := svc.Generate(context.Background(), 1, 7, monday, monday)
	require.NoError(t, err)

	assert.Equal(t, &GenerationResult{}, result)
	repo.AssertNotCalled(t, "InsertSlot", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateUnknownService(t *testing.T) {
	repo := new(MockRepo)
	profileRepo := new(MockProfileRepo)

	profileRepo.On("GetServiceByID", mock.Anything, 99).Return(nil, errors.New("not found"))

	svc := newTestService(repo, profileRepo, time.Now())

	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	_, err := svc.Generate(context.Background(), 1, 99, from, from)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestGenerateRejectsForeignService(t *testing.T) {
	repo := new(MockRepo)
	profileRepo := new(MockProfileRepo)

	profileRepo.On("GetServiceByID", mock.Anything, 7).Return(activeService(42), nil)

	svc := newTestService(repo, profileRepo, time.Now())

	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	_, err := svc.Generate(context.Background(), 1, 7, from, from)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestGenerateRangeTooLarge(t *testing.T) {
	svc := newTestService(new(MockRepo), new(MockProfileRepo), time.Now())

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Generate(context.Background(), 1, 7, from, from.AddDate(0, 2, 0))
	assert.ErrorIs(t, err, ErrRangeTooLarge)

	_, err = svc.Generate(context.Background(), 1, 7, from, from.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestGenerateFromRequestDefaultsToNextWeek(t *testing.T) {
	repo := new(MockRepo)
	profileRepo := new(MockProfileRepo)

	profileRepo.On("GetServiceByID", mock.Anything, 7).Return(activeService(1), nil)

	// now is Tuesday Sep 1; the default window is Sep 8 through Sep 14
	now := time.Date(2026, 9, 1, 15, 30, 0, 0, time.UTC)
	svc := newTestService(repo, profileRepo, now)

	repo.On("GetRulesByProfile", mock.Anything, 1, true).Return([]AvailabilityRule{
		{
			ID: 1, ProfileID: 1, DayOfWeek: 1,
			StartTime: "09:00", EndTime: "10:00",
			SlotDuration: 60, MaxAppointmentsPerSlot: 1, IsActive: true,
		},
	}, nil)

	// exactly one Monday (Sep 14) falls inside the default window
	expectedStart := time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC)
	repo.On("InsertSlot", mock.Anything, 1, 7, expectedStart, expectedStart.Add(time.Hour), 1).
		Return(true, nil).Once()

	result, err := svc.GenerateFromRequest(context.Background(), 1, GenerateRequest{ServiceID: 7})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	repo.AssertExpectations(t)
}

func TestPreviewMatchesGenerate(t *testing.T) {
	rules := []AvailabilityRule{
		{
			ID: 1, ProfileID: 1, DayOfWeek: 1,
			StartTime: "09:00", EndTime: "10:00",
			SlotDuration: 20, BufferTime: 5,
			MaxAppointmentsPerSlot: 1, IsActive: true,
		},
	}

	repo := new(MockRepo)
	profileRepo := new(MockProfileRepo)
	repo.On("GetRulesByProfile", mock.Anything, 1, true).Return(rules, nil)

	svc := newTestService(repo, profileRepo, time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))

	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	entries, err := svc.Preview(context.Background(), 1, monday, monday)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "2026-09-07", entries[0].Date)
	assert.Equal(t, 2, entries[0].SlotCount)

	// generating the same range inserts exactly SlotCount slots
	profileRepo.On("GetServiceByID", mock.Anything, 7).Return(activeService(1), nil)
	repo.On("InsertSlot", mock.Anything, 1, 7, mock.Anything, mock.Anything, 1).Return(true, nil).Times(2)

	result, err := svc.Generate(context.Background(), 1, 7, monday, monday)
	require.NoError(t, err)
	assert.Equal(t, entries[0].SlotCount, result.Created)
	repo.AssertExpectations(t)
}

func TestListSlotsDerivesAvailability(t *testing.T) {
	now := time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-2 * time.Hour)

	repo := new(MockRepo)
	repo.On("GetSlotsByProfile", mock.Anything, 1, mock.Anything, mock.Anything).Return([]TimeSlot{
		{ID: 1, StartTime: future, EndTime: future.Add(30 * time.Minute), Status: SlotAvailable, MaxReservations: 2, CurrentReservations: 1},
		{ID: 2, StartTime: future, EndTime: future.Add(30 * time.Minute), Status: SlotAvailable, MaxReservations: 1, CurrentReservations: 1},
		{ID: 3, StartTime: past, EndTime: past.Add(30 * time.Minute), Status: SlotAvailable, MaxReservations: 1},
		{ID: 4, StartTime: future, EndTime: future.Add(30 * time.Minute), Status: SlotBlocked, MaxReservations: 1},
	}, nil)

	svc := newTestService(repo, new(MockProfileRepo), now)

	slots, err := svc.ListSlots(context.Background(), 1, now, now.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, slots, 4)

	assert.True(t, slots[0].Bookable)
	assert.Equal(t, 1, slots[0].Remaining)
	assert.False(t, slots[1].Bookable, "full slot")
	assert.False(t, slots[2].Bookable, "slot already started")
	assert.False(t, slots[3].Bookable, "blocked slot")
}

func TestExpireOverdueSlots(t *testing.T) {
	now := time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC)

	repo := new(MockRepo)
	repo.On("ExpireDueSlots", mock.Anything, now).Return(3, nil)

	svc := newTestService(repo, new(MockProfileRepo), now)

	expired, err := svc.ExpireOverdueSlots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, expired)
}

func TestCreateRuleValidates(t *testing.T) {
	svc := newTestService(new(MockRepo), new(MockProfileRepo), time.Now())

	_, err := svc.CreateRule(context.Background(), 1, RuleRequest{
		DayOfWeek:              1,
		StartTime:              "10:00",
		EndTime:                "09:00",
		SlotDuration:           30,
		MaxAppointmentsPerSlot: 1,
	})
	assert.ErrorIs(t, err, ErrValidation)
}
