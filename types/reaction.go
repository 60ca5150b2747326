package types

import "time"

// ReactionKind is one of the two opposing votes on an activity.
type ReactionKind string

const (
	ReactionUp   ReactionKind = "up"
	ReactionDown ReactionKind = "down"
)

func (k ReactionKind) IsValid() bool {
	return k == ReactionUp || k == ReactionDown
}

// Reaction is one stored row. (TripID, DayNumber, ActivityIndex, UserID) is unique.
type Reaction struct {
	TripID        string       `json:"trip_id"`
	DayNumber     int          `json:"day_number"`
	ActivityIndex int          `json:"activity_index"`
	ActivityID    *string      `json:"activity_id,omitempty"`
	UserID        string       `json:"user_id"`
	Reaction      ReactionKind `json:"reaction"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Key returns the positional activity key of the row.
func (r Reaction) Key() ActivityKey {
	return ActivityKey{Day: r.DayNumber, Index: r.ActivityIndex}
}

// ReactionSummary is the per-activity aggregate a viewer sees.
type ReactionSummary struct {
	Up             int           `json:"up"`
	Down           int           `json:"down"`
	ViewerReaction *ReactionKind `json:"viewer_reaction"`
}

// ReactionEntry is the wire form of one aggregate entry; JSON objects can't
// key on structs.
type ReactionEntry struct {
	ActivityKey
	ReactionSummary
}

// ReactRequest is the body of a reaction write.
type ReactRequest struct {
	Day      int          `json:"day" binding:"required,min=1"`
	Index    *int         `json:"index" binding:"required,min=0"`
	Reaction ReactionKind `json:"reaction" binding:"required,oneof=up down"`
}
