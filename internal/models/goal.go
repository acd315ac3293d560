package models

import "time"

// GoalStatus is the lifecycle state of a goal. Terminal states are
// completed and cancelled; no transition leaves them.
type GoalStatus string

const (
	GoalStatusPending   GoalStatus = "pending"
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusCancelled GoalStatus = "cancelled"
)

// Duration is a closed set: a fixed day count or "custom", which means
// the goal runs until the author completes it.
type Duration string

const (
	Duration7      Duration = "7"
	Duration17     Duration = "17"
	Duration21     Duration = "21"
	Duration28     Duration = "28"
	DurationCustom Duration = "custom"
)

var durations = []Duration{Duration7, Duration17, Duration21, Duration28, DurationCustom}

var durationDays = map[Duration]int{
	Duration7:  7,
	Duration17: 17,
	Duration21: 21,
	Duration28: 28,
}

// Durations returns every valid duration value in menu order.
func Durations() []Duration {
	out := make([]Duration, len(durations))
	copy(out, durations)
	return out
}

// IsValid reports whether d is a member of the enumerated set.
func (d Duration) IsValid() bool {
	for _, v := range durations {
		if v == d {
			return true
		}
	}
	return false
}

// Days returns the day count for fixed durations. ok is false for "custom".
func (d Duration) Days() (int, bool) {
	n, ok := durationDays[d]
	return n, ok
}

// Label renders the duration the way it appears in messages and posts.
func (d Duration) Label() string {
	if d == DurationCustom {
		return "Maqsad tugaguncha"
	}
	return string(d) + " kun"
}

// Categories is the fixed category set a goal must belong to.
var Categories = []string{
	"Biznes",
	"Karyera",
	"Ta'lim",
	"Do'stlar",
	"Sog'lom hayot",
	"Qiziqishlar",
	"Til o'rganish",
	"Zamonaviy kasblar",
	"Shaxsiy rivojlanish",
	"Kitobxonlik",
	"Talaba",
	"Sayohat",
	"Sport",
}

// IsCategory reports whether s is one of the enumerated categories.
func IsCategory(s string) bool {
	for _, c := range Categories {
		if c == s {
			return true
		}
	}
	return false
}

// Goal is a user-authored objective. It is created pending/unpublished and
// only an admin approval makes it active and published; "deletion" is a
// status transition, the record is never removed.
type Goal struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Duration    Duration `json:"duration"`

	AuthorID   int64  `json:"authorId"`
	AuthorName string `json:"authorName,omitempty"`

	Status      GoalStatus `json:"status"`
	IsPublished bool       `json:"isPublished"`
	IsActive    bool       `json:"isActive"`

	Participants int `json:"participants"`
	Likes        int `json:"likes"`
	Dislikes     int `json:"dislikes"`

	// Set at most once, on the first successful channel post. Later edits
	// reuse it instead of posting again.
	ChannelMessageID int        `json:"channelMessageId,omitempty"`
	ChannelPostDate  *time.Time `json:"channelPostDate,omitempty"`

	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	ApprovedBy      int64      `json:"approvedBy,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`

	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Terminal reports whether the goal can no longer transition.
func (g *Goal) Terminal() bool {
	return g.Status == GoalStatusCompleted || g.Status == GoalStatusCancelled
}
