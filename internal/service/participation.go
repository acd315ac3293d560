package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"yolchi-backend/internal/common/config"
	"yolchi-backend/internal/common/logger"
	"yolchi-backend/internal/models"
	"yolchi-backend/internal/notify"
	"yolchi-backend/internal/publisher"
	"yolchi-backend/internal/storage"
)

// ParticipationService runs the join sub-workflow. A (user, goal) pair
// gets at most one participation record; repeated joins return it instead
// of duplicating, and the counters move exactly once.
type ParticipationService struct {
	store    storage.Store
	users    *UserService
	goals    *GoalService
	pub      *publisher.ChannelPublisher
	notifier *notify.Notifier
	cfg      *config.Config
}

func NewParticipationService(store storage.Store, users *UserService, goals *GoalService, pub *publisher.ChannelPublisher, notifier *notify.Notifier, cfg *config.Config) *ParticipationService {
	return &ParticipationService{
		store:    store,
		users:    users,
		goals:    goals,
		pub:      pub,
		notifier: notifier,
		cfg:      cfg,
	}
}

// Join creates (or returns) the participation for (userID, goalID).
// Self-join is rejected before any record is touched; the target goal
// must be published. created reports whether this call made the record.
func (s *ParticipationService) Join(ctx context.Context, userID int64, goalID string) (*models.Participation, bool, error) {
	goal, err := s.goals.Get(ctx, goalID)
	if err != nil {
		return nil, false, err
	}
	if goal.AuthorID == userID {
		return nil, false, ErrSelfJoin
	}
	if !goal.IsPublished {
		return nil, false, ErrNotPublished
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	var (
		participation models.Participation
		created       bool
	)
	err = s.store.Mutate(ctx, storage.Participations, func(records []storage.Record) ([]storage.Record, error) {
		for _, rec := range records {
			if storage.IDString(rec["userId"]) == storage.IDString(userID) &&
				storage.IDString(rec["goalId"]) == goalID {
				return records, storage.Decode(rec, &participation)
			}
		}

		participation = models.Participation{
			ID:       uuid.New().String(),
			UserID:   userID,
			GoalID:   goalID,
			Status:   models.ParticipationPending,
			JoinedAt: time.Now().UTC(),
		}
		rec, err := storage.Encode(participation)
		if err != nil {
			return nil, err
		}
		created = true
		return append(records, rec), nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("join goal: %w", err)
	}

	if !created {
		return &participation, false, nil
	}

	if _, _, err := s.store.Increment(ctx, storage.Goals, goalID, "participants", 1); err != nil {
		logger.Warn().Err(err).Str("goal_id", goalID).Msg("failed to bump participants")
	}
	if _, _, err := s.store.Increment(ctx, storage.Users, storage.IDString(userID), "goalsJoined", 1); err != nil {
		logger.Warn().Err(err).Int64("user_id", userID).Msg("failed to bump goalsJoined")
	}

	s.notifier.Send(ctx, goal.AuthorID, fmt.Sprintf(
		"👥 YANGI QO'SHILISH SO'ROVI\n\n%s \"%s\" maqsadingizga qo'shilmoqchi.\n\nQabul qilasizmi?",
		user.DisplayName(), goal.Name,
	), notify.JoinDecisionKeyboard(participation.ID))

	return &participation, true, nil
}

// Get returns the participation with the given id.
func (s *ParticipationService) Get(ctx context.Context, id string) (*models.Participation, error) {
	rec, ok, err := s.store.FindOne(ctx, storage.Participations, func(r storage.Record) bool {
		return r.ID() == id
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrParticipationNotFound
	}
	var p models.Participation
	if err := storage.Decode(rec, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Accept lets the goal author admit a pending joiner. The channel post is
// refreshed so the participant count stays current; a refresh failure is
// logged, never surfaced to the author.
func (s *ParticipationService) Accept(ctx context.Context, actorID int64, participationID string) (*models.Participation, error) {
	p, goal, err := s.decide(ctx, actorID, participationID, models.ParticipationAccepted)
	if err != nil {
		return nil, err
	}

	s.notifier.Send(ctx, p.UserID, fmt.Sprintf(
		"🎉 \"%s\" maqsadiga qo'shilish so'rovingiz qabul qilindi!",
		goal.Name,
	), nil)

	fresh, err := s.goals.Get(ctx, goal.ID)
	if err == nil {
		goal = fresh
	}
	if err := s.pub.Refresh(ctx, goal); err != nil {
		logger.Warn().Err(err).Str("goal_id", goal.ID).Msg("channel post refresh failed")
	}

	return p, nil
}

// Reject lets the goal author turn a pending joiner away.
func (s *ParticipationService) Reject(ctx context.Context, actorID int64, participationID string) (*models.Participation, error) {
	p, goal, err := s.decide(ctx, actorID, participationID, models.ParticipationRejected)
	if err != nil {
		return nil, err
	}

	s.notifier.Send(ctx, p.UserID, fmt.Sprintf(
		"😔 \"%s\" maqsadiga qo'shilish so'rovingiz rad etildi.",
		goal.Name,
	), nil)

	return p, nil
}

func (s *ParticipationService) decide(ctx context.Context, actorID int64, participationID string, status models.ParticipationStatus) (*models.Participation, *models.Goal, error) {
	p, err := s.Get(ctx, participationID)
	if err != nil {
		return nil, nil, err
	}
	goal, err := s.goals.Get(ctx, p.GoalID)
	if err != nil {
		return nil, nil, err
	}
	if goal.AuthorID != actorID {
		return nil, nil, ErrNotAuthor
	}
	if p.Status != models.ParticipationPending {
		return nil, nil, ErrAlreadyJoined
	}

	rec, ok, err := s.store.UpdateFields(ctx, storage.Participations, participationID, storage.Record{
		"status": string(status),
	})
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrParticipationNotFound
	}
	if err := storage.Decode(rec, p); err != nil {
		return nil, nil, err
	}
	return p, goal, nil
}

// Leave marks the participation as left. Counters are not decremented:
// they count joins over the goal's lifetime.
func (s *ParticipationService) Leave(ctx context.Context, userID int64, goalID string) (*models.Participation, error) {
	rec, ok, err := s.store.FindOne(ctx, storage.Participations, func(r storage.Record) bool {
		return storage.IDString(r["userId"]) == storage.IDString(userID) &&
			storage.IDString(r["goalId"]) == goalID
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrParticipationNotFound
	}

	var p models.Participation
	if err := storage.Decode(rec, &p); err != nil {
		return nil, err
	}

	updated, ok, err := s.store.UpdateFields(ctx, storage.Participations, p.ID, storage.Record{
		"status": string(models.ParticipationLeft),
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrParticipationNotFound
	}
	if err := storage.Decode(updated, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// JoinedGoal pairs a goal with the caller's participation in it.
type JoinedGoal struct {
	Goal          models.Goal          `json:"goal"`
	Participation models.Participation `json:"participation"`
}

// ForUser lists every goal the user asked to join, with join metadata.
func (s *ParticipationService) ForUser(ctx context.Context, userID int64) ([]JoinedGoal, error) {
	recs, err := s.store.FindMany(ctx, storage.Participations, func(r storage.Record) bool {
		return storage.IDString(r["userId"]) == storage.IDString(userID)
	})
	if err != nil {
		return nil, err
	}
	parts, err := storage.DecodeAll[models.Participation](recs)
	if err != nil {
		return nil, err
	}

	out := make([]JoinedGoal, 0, len(parts))
	for _, p := range parts {
		goal, err := s.goals.Get(ctx, p.GoalID)
		if err != nil {
			// Dangling references are a caller responsibility; skip them.
			continue
		}
		out = append(out, JoinedGoal{Goal: *goal, Participation: p})
	}
	return out, nil
}

// Member is one entry in a goal's participant list.
type Member struct {
	User          models.User          `json:"user"`
	Participation models.Participation `json:"participation"`
}

// ForGoal lists everyone who asked to join the goal.
func (s *ParticipationService) ForGoal(ctx context.Context, goalID string) ([]Member, error) {
	recs, err := s.store.FindMany(ctx, storage.Participations, func(r storage.Record) bool {
		return storage.IDString(r["goalId"]) == goalID
	})
	if err != nil {
		return nil, err
	}
	parts, err := storage.DecodeAll[models.Participation](recs)
	if err != nil {
		return nil, err
	}

	out := make([]Member, 0, len(parts))
	for _, p := range parts {
		user, err := s.users.Get(ctx, p.UserID)
		if err != nil {
			continue
		}
		out = append(out, Member{User: *user, Participation: p})
	}
	return out, nil
}
