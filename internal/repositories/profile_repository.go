package repositories

import (
	"context"
	"errors"
	"time"

	"supportdesk/internal/backend"
	"supportdesk/internal/models"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository reads and provisions user profiles.
type ProfileRepository interface {
	Get(ctx context.Context, id string) (models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	// EnsureByPhone finds the customer profile for a phone number,
	// creating one when the number is seen for the first time.
	EnsureByPhone(ctx context.Context, phone, displayName string) (models.Profile, error)
}

// ProfileRepo is a backend-client implementation of ProfileRepository.
type ProfileRepo struct {
	client backend.Client
}

// NewProfileRepo constructs a ProfileRepo.
func NewProfileRepo(client backend.Client) *ProfileRepo {
	return &ProfileRepo{client: client}
}

// Get fetches a profile by id.
func (r *ProfileRepo) Get(ctx context.Context, id string) (models.Profile, error) {
	rows, err := r.client.SelectRows(ctx, backend.TableProfiles, backend.Filter{"id": id}, "", true, 1)
	if err != nil {
		return models.Profile{}, err
	}
	if len(rows) == 0 {
		return models.Profile{}, ErrProfileNotFound
	}
	return ProfileFromRow(rows[0]), nil
}

// List returns all profiles.
func (r *ProfileRepo) List(ctx context.Context) ([]models.Profile, error) {
	rows, err := r.client.SelectRows(ctx, backend.TableProfiles, nil, "created_at", true, 0)
	if err != nil {
		return nil, err
	}
	profiles := make([]models.Profile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, ProfileFromRow(row))
	}
	return profiles, nil
}

// EnsureByPhone finds or creates the customer profile behind a phone
// number. Customer ids are derived from the number so concurrent webhooks
// for the same customer converge without coordination.
func (r *ProfileRepo) EnsureByPhone(ctx context.Context, phone, displayName string) (models.Profile, error) {
	if phone == "" {
		return models.Profile{}, errors.New("phone is required")
	}

	id := "wa:" + phone
	rows, err := r.client.SelectRows(ctx, backend.TableProfiles, backend.Filter{"id": id}, "", true, 1)
	if err != nil {
		return models.Profile{}, err
	}
	if len(rows) > 0 {
		return ProfileFromRow(rows[0]), nil
	}

	row, err := r.client.InsertRow(ctx, backend.TableProfiles, backend.Row{
		"id":         id,
		"phone":      phone,
		"first_name": displayName,
		"created_at": time.Now().UTC(),
	})
	if errors.Is(err, backend.ErrConflict) {
		// Another webhook created it first.
		return r.Get(ctx, id)
	}
	if err != nil {
		return models.Profile{}, err
	}
	return ProfileFromRow(row), nil
}
