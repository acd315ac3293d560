package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"yolchi-backend/internal/common/config"
	"yolchi-backend/internal/common/logger"
	"yolchi-backend/internal/models"
	"yolchi-backend/internal/notify"
	"yolchi-backend/internal/publisher"
	"yolchi-backend/internal/storage"
)

// GoalService drives the goal lifecycle: pending on creation, admin
// approval to active/published, author-gated start/complete/cancel.
// Approval commits before the channel post is attempted; a publish
// failure never rolls the approval back.
type GoalService struct {
	store    storage.Store
	users    *UserService
	pub      *publisher.ChannelPublisher
	notifier *notify.Notifier
	cfg      *config.Config
}

func NewGoalService(store storage.Store, users *UserService, pub *publisher.ChannelPublisher, notifier *notify.Notifier, cfg *config.Config) *GoalService {
	return &GoalService{
		store:    store,
		users:    users,
		pub:      pub,
		notifier: notifier,
		cfg:      cfg,
	}
}

// Create validates the input and persists a new goal in pending,
// unpublished state. The author's created-goals counter moves once.
func (s *GoalService) Create(ctx context.Context, authorID int64, in models.GoalInput, limits models.DescriptionLimits) (*models.Goal, error) {
	if err := in.Validate(limits); err != nil {
		return nil, err
	}

	author, err := s.users.Get(ctx, authorID)
	if err != nil {
		return nil, err
	}

	goal := models.Goal{
		ID:          newGoalID(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Duration:    in.Duration,
		AuthorID:    authorID,
		AuthorName:  author.DisplayName(),
		Status:      models.GoalStatusPending,
		CreatedAt:   time.Now().UTC(),
	}

	rec, err := storage.Encode(goal)
	if err != nil {
		return nil, err
	}
	if err := s.store.Append(ctx, storage.Goals, rec); err != nil {
		return nil, fmt.Errorf("append goal: %w", err)
	}

	if _, _, err := s.store.Increment(ctx, storage.Users, storage.IDString(authorID), "goalsCreated", 1); err != nil {
		logger.Warn().Err(err).Int64("user_id", authorID).Msg("failed to bump goalsCreated")
	}

	return &goal, nil
}

// Get returns the goal with the given id.
func (s *GoalService) Get(ctx context.Context, id string) (*models.Goal, error) {
	rec, ok, err := s.store.FindOne(ctx, storage.Goals, func(r storage.Record) bool {
		return r.ID() == id
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrGoalNotFound
	}
	var goal models.Goal
	if err := storage.Decode(rec, &goal); err != nil {
		return nil, err
	}
	return &goal, nil
}

// SubmitForApproval fans an approval prompt out to every configured
// admin. The goal itself does not change state: it stays pending until an
// admin decides, indefinitely if nobody ever does.
func (s *GoalService) SubmitForApproval(ctx context.Context, authorID int64, goalID string) error {
	goal, err := s.Get(ctx, goalID)
	if err != nil {
		return err
	}
	if goal.AuthorID != authorID {
		return ErrNotAuthor
	}

	text := fmt.Sprintf(
		"🆕 YANGI MAQSAD\n\nNomi: %s\nMuallif: %s\nKategoriya: %s\nDavomiylik: %s\n\nTasdiqlash yoki rad etish uchun pastdagi tugmalardan foydalaning.",
		goal.Name, goal.AuthorName, goal.Category, goal.Duration.Label(),
	)
	for _, adminID := range s.cfg.Telegram.AdminIDs {
		s.notifier.Send(ctx, adminID, text, notify.ApprovalKeyboard(goal.ID))
	}
	return nil
}

// Approve commits the admin decision and then attempts the channel post.
// The returned PublishError, when non-nil, reports a post failure on an
// otherwise approved goal; the caller surfaces it to the admin.
func (s *GoalService) Approve(ctx context.Context, adminID int64, goalID string) (*models.Goal, *publisher.PublishError, error) {
	if !s.cfg.IsAdmin(adminID) {
		return nil, nil, ErrNotAdmin
	}

	goal, err := s.Get(ctx, goalID)
	if err != nil {
		return nil, nil, err
	}
	if goal.Terminal() {
		return nil, nil, ErrGoalFinished
	}

	now := time.Now().UTC()
	rec, ok, err := s.store.UpdateFields(ctx, storage.Goals, goalID, storage.Record{
		"status":      string(models.GoalStatusActive),
		"isPublished": true,
		"approvedAt":  now.Format(time.RFC3339Nano),
		"approvedBy":  adminID,
	})
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrGoalNotFound
	}
	if err := storage.Decode(rec, goal); err != nil {
		return nil, nil, err
	}

	if _, err := s.pub.Publish(ctx, goal); err != nil {
		pubErr, isPub := err.(*publisher.PublishError)
		if !isPub {
			pubErr = &publisher.PublishError{Kind: publisher.KindUnknown, Detail: err.Error()}
		}
		logger.Warn().
			Str("goal_id", goal.ID).
			Str("kind", string(pubErr.Kind)).
			Str("detail", pubErr.Detail).
			Msg("goal approved but channel post failed")
		return goal, pubErr, nil
	}

	s.notifier.Send(ctx, goal.AuthorID, fmt.Sprintf(
		"🎉 TABRIKLAYMIZ!\n\n\"%s\" maqsadingiz tasdiqlandi va kanalga joylandi.\n\nEndi boshqalar sizning maqsadingizga qo'shilishi mumkin.",
		goal.Name,
	), nil)

	return goal, nil, nil
}

const defaultRejectionReason = "Platforma qoidalariga mos kelmadi"

// Reject cancels the goal with a recorded reason and notifies the author.
func (s *GoalService) Reject(ctx context.Context, adminID int64, goalID, reason string) (*models.Goal, error) {
	if !s.cfg.IsAdmin(adminID) {
		return nil, ErrNotAdmin
	}

	goal, err := s.Get(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if goal.Terminal() {
		return nil, ErrGoalFinished
	}
	if reason == "" {
		reason = defaultRejectionReason
	}

	rec, ok, err := s.store.UpdateFields(ctx, storage.Goals, goalID, storage.Record{
		"status":          string(models.GoalStatusCancelled),
		"isPublished":     false,
		"rejectionReason": reason,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrGoalNotFound
	}
	if err := storage.Decode(rec, goal); err != nil {
		return nil, err
	}

	s.notifier.Send(ctx, goal.AuthorID, fmt.Sprintf(
		"⚠️ MAQSAD RAD ETILDI\n\n\"%s\" maqsadingiz platforma qoidalariga mos kelmadi.\n\nSabab: %s\n\nYangidan maqsad yaratishingiz mumkin.",
		goal.Name, reason,
	), nil)

	return goal, nil
}

// Start begins the goal's run: active, isActive, startDate now, endDate
// computed from the duration. Custom durations leave endDate unset.
func (s *GoalService) Start(ctx context.Context, authorID int64, goalID string) (*models.Goal, error) {
	goal, err := s.Get(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if goal.AuthorID != authorID {
		return nil, ErrNotAuthor
	}
	if goal.Terminal() {
		return nil, ErrGoalFinished
	}

	now := time.Now().UTC()
	fields := storage.Record{
		"status":    string(models.GoalStatusActive),
		"isActive":  true,
		"startDate": now.Format(time.RFC3339Nano),
	}
	if days, ok := goal.Duration.Days(); ok {
		fields["endDate"] = now.AddDate(0, 0, days).Format(time.RFC3339Nano)
	}

	rec, ok, err := s.store.UpdateFields(ctx, storage.Goals, goalID, fields)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrGoalNotFound
	}
	if err := storage.Decode(rec, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// Complete finishes the goal; endDate falls back to now when the run had
// no fixed end.
func (s *GoalService) Complete(ctx context.Context, authorID int64, goalID string) (*models.Goal, error) {
	goal, err := s.Get(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if goal.AuthorID != authorID {
		return nil, ErrNotAuthor
	}
	if goal.Terminal() {
		return nil, ErrGoalFinished
	}

	fields := storage.Record{
		"status":   string(models.GoalStatusCompleted),
		"isActive": false,
	}
	if goal.EndDate == nil {
		fields["endDate"] = time.Now().UTC().Format(time.RFC3339Nano)
	}

	rec, ok, err := s.store.UpdateFields(ctx, storage.Goals, goalID, fields)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrGoalNotFound
	}
	if err := storage.Decode(rec, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// Cancel soft-deletes the goal: status cancelled, unpublished, history
// preserved.
func (s *GoalService) Cancel(ctx context.Context, authorID int64, goalID string) (*models.Goal, error) {
	goal, err := s.Get(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if goal.AuthorID != authorID {
		return nil, ErrNotAuthor
	}
	if goal.Terminal() {
		return nil, ErrGoalFinished
	}

	rec, ok, err := s.store.UpdateFields(ctx, storage.Goals, goalID, storage.Record{
		"status":      string(models.GoalStatusCancelled),
		"isActive":    false,
		"isPublished": false,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrGoalNotFound
	}
	if err := storage.Decode(rec, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// ByAuthor lists every goal the user created, newest first.
func (s *GoalService) ByAuthor(ctx context.Context, authorID int64) ([]models.Goal, error) {
	recs, err := s.store.FindMany(ctx, storage.Goals, func(r storage.Record) bool {
		return storage.IDString(r["authorId"]) == storage.IDString(authorID)
	})
	if err != nil {
		return nil, err
	}
	goals, err := storage.DecodeAll[models.Goal](recs)
	if err != nil {
		return nil, err
	}
	sortGoals(goals, SortNewest)
	return goals, nil
}

// GoalSort orders listings the way the web catalog offers them.
type GoalSort string

const (
	SortNewest  GoalSort = "newest"
	SortOldest  GoalSort = "oldest"
	SortPopular GoalSort = "popular"
)

// ListQuery filters the published catalog.
type ListQuery struct {
	Category string
	Search   string
	Sort     GoalSort
}

// Published returns the browsable catalog: published goals that are still
// active, filtered and sorted per the query.
func (s *GoalService) Published(ctx context.Context, q ListQuery) ([]models.Goal, error) {
	recs, err := s.store.FindMany(ctx, storage.Goals, func(r storage.Record) bool {
		published, _ := r["isPublished"].(bool)
		return published && r["status"] == string(models.GoalStatusActive)
	})
	if err != nil {
		return nil, err
	}
	goals, err := storage.DecodeAll[models.Goal](recs)
	if err != nil {
		return nil, err
	}

	if q.Category != "" && q.Category != "all" {
		filtered := goals[:0]
		for _, g := range goals {
			if g.Category == q.Category {
				filtered = append(filtered, g)
			}
		}
		goals = filtered
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		filtered := goals[:0]
		for _, g := range goals {
			if strings.Contains(strings.ToLower(g.Name), needle) ||
				strings.Contains(strings.ToLower(g.Description), needle) {
				filtered = append(filtered, g)
			}
		}
		goals = filtered
	}

	sortGoals(goals, q.Sort)
	return goals, nil
}

// Trending returns the most joined published goals.
func (s *GoalService) Trending(ctx context.Context, limit int) ([]models.Goal, error) {
	goals, err := s.Published(ctx, ListQuery{Sort: SortPopular})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(goals) > limit {
		goals = goals[:limit]
	}
	return goals, nil
}

// PlatformStats is the public counters block on the web front page.
type PlatformStats struct {
	TotalUsers     int `json:"totalUsers"`
	TotalGoals     int `json:"totalGoals"`
	PublishedGoals int `json:"publishedGoals"`
	CompletedGoals int `json:"completedGoals"`
}

// Stats aggregates the platform counters.
func (s *GoalService) Stats(ctx context.Context) (*PlatformStats, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := s.store.Load(ctx, storage.Goals)
	if err != nil {
		return nil, err
	}

	stats := &PlatformStats{TotalUsers: users, TotalGoals: len(recs)}
	for _, r := range recs {
		if published, _ := r["isPublished"].(bool); published {
			stats.PublishedGoals++
		}
		if r["status"] == string(models.GoalStatusCompleted) {
			stats.CompletedGoals++
		}
	}
	return stats, nil
}

// CompleteExpired closes every active goal whose end date has passed and
// notifies the author. It returns the goals it closed.
func (s *GoalService) CompleteExpired(ctx context.Context) ([]models.Goal, error) {
	now := time.Now().UTC()
	recs, err := s.store.FindMany(ctx, storage.Goals, func(r storage.Record) bool {
		return r["status"] == string(models.GoalStatusActive)
	})
	if err != nil {
		return nil, err
	}
	active, err := storage.DecodeAll[models.Goal](recs)
	if err != nil {
		return nil, err
	}

	var closed []models.Goal
	for _, goal := range active {
		if goal.EndDate == nil || goal.EndDate.After(now) {
			continue
		}
		rec, ok, err := s.store.UpdateFields(ctx, storage.Goals, goal.ID, storage.Record{
			"status":   string(models.GoalStatusCompleted),
			"isActive": false,
		})
		if err != nil {
			return closed, err
		}
		if !ok {
			continue
		}
		if err := storage.Decode(rec, &goal); err != nil {
			return closed, err
		}
		closed = append(closed, goal)

		s.notifier.Send(ctx, goal.AuthorID, fmt.Sprintf(
			"⏰ MUDDAT TUGADI\n\n\"%s\" maqsadingiz muddati yakunlandi va avtomatik yopildi.\n\nNatijangiz bilan o'rtoqlashing!",
			goal.Name,
		), nil)
	}
	return closed, nil
}

func sortGoals(goals []models.Goal, order GoalSort) {
	switch order {
	case SortPopular:
		sort.SliceStable(goals, func(i, j int) bool { return goals[i].Participants > goals[j].Participants })
	case SortOldest:
		sort.SliceStable(goals, func(i, j int) bool { return goals[i].CreatedAt.Before(goals[j].CreatedAt) })
	default:
		sort.SliceStable(goals, func(i, j int) bool { return goals[i].CreatedAt.After(goals[j].CreatedAt) })
	}
}
