package profile

import "context"

type Repository interface {
	Create(ctx context.Context, slug, displayName, email, phone, passwordHash, role string) (*Profile, error)
	FindByID(ctx context.Context, id int) (*Profile, error)
	FindByEmail(ctx context.Context, email string) (*Profile, error)
	FindBySlug(ctx context.Context, slug string) (*Profile, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	CreateService(ctx context.Context, profileID int, name string, durationMinutes int, priceCents int64) (*AdvisorService, error)
	GetServiceByID(ctx context.Context, id int) (*AdvisorService, error)
	GetServicesByProfile(ctx context.Context, profileID int, onlyActive bool) ([]AdvisorService, error)
	DeactivateService(ctx context.Context, profileID, serviceID int) error
}
