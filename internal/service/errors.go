package service

import "errors"

// Not-found conditions. Reported to the caller with a specific message;
// never crash a handler.
var (
	ErrUserNotFound           = errors.New("user not found")
	ErrGoalNotFound           = errors.New("goal not found")
	ErrParticipationNotFound  = errors.New("participation not found")
	ErrRecommendationNotFound = errors.New("recommendation not found")
)

// Authorization violations. No state is mutated when one is returned.
var (
	ErrNotAuthor = errors.New("only the goal author can perform this action")
	ErrNotAdmin  = errors.New("admin rights required")
)

// Lifecycle violations.
var (
	ErrSelfJoin      = errors.New("authors cannot join their own goal")
	ErrNotPublished  = errors.New("goal is not open for joining")
	ErrGoalFinished  = errors.New("goal is already completed or cancelled")
	ErrAlreadyJoined = errors.New("join request already handled")
)

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrGoalNotFound) ||
		errors.Is(err, ErrParticipationNotFound) ||
		errors.Is(err, ErrRecommendationNotFound)
}

// IsAuthorization reports whether err is an authorization violation.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrNotAuthor) || errors.Is(err, ErrNotAdmin)
}
