package profile

import (
	"context"
	"errors"

	"github.com/leobar37/welllink-sub003/internal/auth"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrSlugExists         = errors.New("slug already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrServiceNotFound    = errors.New("service not found")
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*Profile, string, string, error)
	Login(ctx context.Context, req LoginRequest) (*Profile, string, string, error)
	GetByID(ctx context.Context, profileID int) (*Profile, error)
	GetBySlug(ctx context.Context, slug string) (*Profile, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, *Profile, error)
	CreateService(ctx context.Context, profileID int, req CreateServiceRequest) (*AdvisorService, error)
	ListServices(ctx context.Context, profileID int, onlyActive bool) ([]AdvisorService, error)
	DeactivateService(ctx context.Context, profileID, serviceID int) error
}

type service struct {
	repo      Repository
	jwtSecret string
}

func NewService(repo Repository, jwtSecret string) Service {
	return &service{
		repo:      repo,
		jwtSecret: jwtSecret,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*Profile, string, string, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, "", "", err
	}
	if exists {
		return nil, "", "", ErrEmailExists
	}

	taken, err := s.repo.SlugExists(ctx, req.Slug)
	if err != nil {
		return nil, "", "", err
	}
	if taken {
		return nil, "", "", ErrSlugExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", "", err
	}

	profile, err := s.repo.Create(ctx, req.Slug, req.DisplayName, req.Email, req.Phone, passwordHash, "advisor")
	if err != nil {
		return nil, "", "", err
	}

	accessToken, refreshToken, err := auth.GenerateTokens(
		profile.ID,
		profile.Email,
		profile.Role,
		s.jwtSecret,
		s.jwtSecret,
	)
	if err != nil {
		return nil, "", "", err
	}

	return profile, accessToken, refreshToken, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*Profile, string, string, error) {
	profile, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	if !auth.CheckPassword(profile.PasswordHash, req.Password) {
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := auth.GenerateTokens(
		profile.ID,
		profile.Email,
		profile.Role,
		s.jwtSecret,
		s.jwtSecret,
	)
	if err != nil {
		return nil, "", "", err
	}

	return profile, accessToken, refreshToken, nil
}

func (s *service) GetByID(ctx context.Context, profileID int) (*Profile, error) {
	profile, err := s.repo.FindByID(ctx, profileID)
	if err != nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*Profile, error) {
	profile, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, *Profile, error) {
	_, claims, err := auth.RefreshAccessToken(refreshToken, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	profile, err := s.repo.FindByID(ctx, claims.ProfileID)
	if err != nil {
		return "", nil, ErrProfileNotFound
	}

	newAccessToken, err := auth.GenerateAccessToken(profile.ID, profile.Email, profile.Role, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	return newAccessToken, profile, nil
}

func (s *service) CreateService(ctx context.Context, profileID int, req CreateServiceRequest) (*AdvisorService, error) {
	return s.repo.CreateService(ctx, profileID, req.Name, req.DurationMinutes, req.PriceCents)
}

func (s *service) ListServices(ctx context.Context, profileID int, onlyActive bool) ([]AdvisorService, error) {
	return s.repo.GetServicesByProfile(ctx, profileID, onlyActive)
}

func (s *service) DeactivateService(ctx context.Context, profileID, serviceID int) error {
	err := s.repo.DeactivateService(ctx, profileID, serviceID)
	if err != nil {
		if err == ErrServiceNotFoundOrInactive {
			return ErrServiceNotFound
		}
		return err
	}
	return nil
}
