package models

import "time"

// ParticipationStatus is the state of one user's join request on one goal.
type ParticipationStatus string

const (
	ParticipationPending  ParticipationStatus = "pending"
	ParticipationAccepted ParticipationStatus = "accepted"
	ParticipationRejected ParticipationStatus = "rejected"
	ParticipationLeft     ParticipationStatus = "left"
)

// Participation links one user to one goal. At most one record exists per
// (userId, goalId) pair; joining again returns the existing record.
type Participation struct {
	ID       string              `json:"id"`
	UserID   int64               `json:"userId"`
	GoalID   string              `json:"goalId"`
	Status   ParticipationStatus `json:"status"`
	JoinedAt time.Time           `json:"joinedAt"`
}

// Recommendation is an editorially curated goal suggestion shown in the
// search menu, with its own like/dislike counters.
type Recommendation struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Likes       int       `json:"likes"`
	Dislikes    int       `json:"dislikes"`
	CreatedAt   time.Time `json:"createdAt"`
}
