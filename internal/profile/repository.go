package profile

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrServiceNotFoundOrInactive = errors.New("service not found or already inactive")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, slug, displayName, email, phone, passwordHash, role string) (*Profile, error) {
	query := `
		INSERT INTO profiles (slug, display_name, email, phone, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, slug, display_name, email, phone, password_hash, role, is_active, created_at
	`

	var profile Profile
	err := r.db.GetContext(ctx, &profile, query, slug, displayName, email, phone, passwordHash, role)
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*Profile, error) {
	query := `
		SELECT id, slug, display_name, email, phone, password_hash, role, is_active, created_at
		FROM profiles
		WHERE id = $1
	`

	var profile Profile
	err := r.db.GetContext(ctx, &profile, query, id)
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*Profile, error) {
	query := `
		SELECT id, slug, display_name, email, phone, password_hash, role, is_active, created_at
		FROM profiles
		WHERE email = $1
	`

	var profile Profile
	err := r.db.GetContext(ctx, &profile, query, email)
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*Profile, error) {
	query := `
		SELECT id, slug, display_name, email, phone, password_hash, role, is_active, created_at
		FROM profiles
		WHERE slug = $1 AND is_active = true
	`

	var profile Profile
	err := r.db.GetContext(ctx, &profile, query, slug)
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM profiles
			WHERE email = $1
		)
	`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, email)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM profiles
			WHERE slug = $1
		)
	`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, slug)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *repository) CreateService(ctx context.Context, profileID int, name string, durationMinutes int, priceCents int64) (*AdvisorService, error) {
	query := `
		INSERT INTO advisor_services (profile_id, name, duration_minutes, price_cents)
		VALUES ($1, $2, $3, $4)
		RETURNING id, profile_id, name, duration_minutes, price_cents, is_active, created_at
	`

	var svc AdvisorService
	err := r.db.GetContext(ctx, &svc, query, profileID, name, durationMinutes, priceCents)
	if err != nil {
		return nil, err
	}

	return &svc, nil
}

func (r *repository) GetServiceByID(ctx context.Context, id int) (*AdvisorService, error) {
	query := `
		SELECT id, profile_id, name, duration_minutes, price_cents, is_active, created_at
		FROM advisor_services
		WHERE id = $1
	`

	var svc AdvisorService
	err := r.db.GetContext(ctx, &svc, query, id)
	if err != nil {
		return nil, err
	}

	return &svc, nil
}

func (r *repository) GetServicesByProfile(ctx context.Context, profileID int, onlyActive bool) ([]AdvisorService, error) {
	query := `
		SELECT id, profile_id, name, duration_minutes, price_cents, is_active, created_at
		FROM advisor_services
		WHERE profile_id = $1
	`

	if onlyActive {
		query += " AND is_active = true"
	}

	query += " ORDER BY created_at ASC"

	var services []AdvisorService
	err := r.db.SelectContext(ctx, &services, query, profileID)
	if err != nil {
		return nil, err
	}

	return services, nil
}

func (r *repository) DeactivateService(ctx context.Context, profileID, serviceID int) error {
	query := `
		UPDATE advisor_services
		SET is_active = false
		WHERE id = $1 AND profile_id = $2 AND is_active = true
	`

	result, err := r.db.ExecContext(ctx, query, serviceID, profileID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrServiceNotFoundOrInactive
	}

	return nil
}
