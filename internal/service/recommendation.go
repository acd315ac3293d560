package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"yolchi-backend/internal/models"
	"yolchi-backend/internal/storage"
)

// RecommendationService serves the curated goal ideas shown to users who
// have not decided what to work on yet.
type RecommendationService struct {
	store storage.Store
}

func NewRecommendationService(store storage.Store) *RecommendationService {
	return &RecommendationService{store: store}
}

// List returns recommendations ordered by net votes, best first.
// limit <= 0 means no limit.
func (s *RecommendationService) List(ctx context.Context, category string, limit int) ([]models.Recommendation, error) {
	recs, err := s.store.FindMany(ctx, storage.Recommendations, func(r storage.Record) bool {
		if category == "" {
			return true
		}
		c, _ := r["category"].(string)
		return strings.EqualFold(c, category)
	})
	if err != nil {
		return nil, err
	}
	items, err := storage.DecodeAll[models.Recommendation](recs)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Likes-items[i].Dislikes > items[j].Likes-items[j].Dislikes
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Get returns the recommendation with the given id.
func (s *RecommendationService) Get(ctx context.Context, id string) (*models.Recommendation, error) {
	rec, ok, err := s.store.FindOne(ctx, storage.Recommendations, func(r storage.Record) bool {
		return r.ID() == id
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRecommendationNotFound
	}
	var out models.Recommendation
	if err := storage.Decode(rec, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create adds a recommendation to the pool. Admin gating is the caller's
// job; the service only persists.
func (s *RecommendationService) Create(ctx context.Context, name, description, category string) (*models.Recommendation, error) {
	if !models.IsCategory(category) {
		return nil, &models.ValidationError{Fields: map[string]string{
			"category": "Noto'g'ri kategoriya tanlandi",
		}}
	}

	rec := models.Recommendation{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Category:    category,
		CreatedAt:   time.Now().UTC(),
	}
	if rec.Name == "" {
		return nil, &models.ValidationError{Fields: map[string]string{
			"name": "Nomi bo'sh bo'lishi mumkin emas",
		}}
	}

	encoded, err := storage.Encode(rec)
	if err != nil {
		return nil, err
	}
	if err := s.store.Append(ctx, storage.Recommendations, encoded); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Vote registers a like or dislike on a recommendation.
func (s *RecommendationService) Vote(ctx context.Context, id string, like bool) (*models.Recommendation, error) {
	field := "dislikes"
	if like {
		field = "likes"
	}
	rec, ok, err := s.store.Increment(ctx, storage.Recommendations, id, field, 1)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRecommendationNotFound
	}
	var out models.Recommendation
	if err := storage.Decode(rec, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
