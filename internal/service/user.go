package service

import (
	"context"
	"fmt"
	"time"

	"yolchi-backend/internal/models"
	"yolchi-backend/internal/storage"
)

// UserService owns the user collection. Creation is an idempotent upsert
// keyed by the external Telegram id; counters are only ever moved by
// lifecycle transitions.
type UserService struct {
	store storage.Store
}

func NewUserService(store storage.Store) *UserService {
	return &UserService{store: store}
}

// Seed is the identity payload Telegram hands us on first contact.
type Seed struct {
	ID           int64
	FirstName    string
	LastName     string
	Username     string
	LanguageCode string
}

// GetOrCreate registers the user on first interaction and returns the
// existing record on every later one.
func (s *UserService) GetOrCreate(ctx context.Context, seed Seed) (*models.User, bool, error) {
	user := models.User{
		ID:           seed.ID,
		FirstName:    seed.FirstName,
		LastName:     seed.LastName,
		Username:     seed.Username,
		LanguageCode: seed.LanguageCode,
		CreatedAt:    time.Now().UTC(),
	}

	rec, err := storage.Encode(user)
	if err != nil {
		return nil, false, err
	}
	stored, created, err := s.store.UpsertByID(ctx, storage.Users, rec)
	if err != nil {
		return nil, false, fmt.Errorf("upsert user: %w", err)
	}

	var out models.User
	if err := storage.Decode(stored, &out); err != nil {
		return nil, false, err
	}
	return &out, created, nil
}

// Get returns the user with the given external id.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	rec, ok, err := s.store.FindOne(ctx, storage.Users, func(r storage.Record) bool {
		return r.ID() == storage.IDString(id)
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	var user models.User
	if err := storage.Decode(rec, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// TouchStart records a /start interaction: bumps last_active and the
// start counter.
func (s *UserService) TouchStart(ctx context.Context, id int64) error {
	if _, ok, err := s.store.Increment(ctx, storage.Users, storage.IDString(id), "start_count", 1); err != nil {
		return err
	} else if !ok {
		return ErrUserNotFound
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, _, err := s.store.UpdateFields(ctx, storage.Users, storage.IDString(id), storage.Record{
		"last_active": now,
	})
	return err
}

// UpdateProfile applies the self-editable profile fields. Only the
// subject may edit their own record; empty input fields stay untouched.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, in models.ProfileInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	fields := storage.Record{}
	if in.FirstName != "" {
		fields["first_name"] = in.FirstName
	}
	if in.Phone != "" {
		fields["phone"] = in.Phone
	}
	if in.BirthDate != "" {
		fields["birth_date"] = in.BirthDate
	}
	if in.Location != "" {
		fields["location"] = in.Location
	}
	if in.Bio != "" {
		fields["bio"] = in.Bio
	}
	if in.Gender != "" {
		fields["gender"] = in.Gender
	}
	if len(fields) == 0 {
		return s.Get(ctx, id)
	}

	rec, ok, err := s.store.UpdateFields(ctx, storage.Users, storage.IDString(id), fields)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUserNotFound
	}

	var user models.User
	if err := storage.Decode(rec, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Count returns the number of registered users, for platform stats.
func (s *UserService) Count(ctx context.Context) (int, error) {
	recs, err := s.store.Load(ctx, storage.Users)
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}
