package rating

import "time"

// Rating is one user's like or dislike of a published event.
type Rating struct {
	ID      int64     `json:"id"`
	UserID  int64     `json:"userId"`
	EventID int64     `json:"eventId"`
	IsLike  bool      `json:"isLike"`
	Created time.Time `json:"created"`
}

// EventScore aggregates the ratings of one event.
type EventScore struct {
	EventID     int64
	Title       string
	InitiatorID int64
	Likes       int64
	Dislikes    int64
}

// Score is likes minus dislikes.
func (s EventScore) Score() int64 {
	return s.Likes - s.Dislikes
}

// AuthorScore sums the scores of every event a user initiated.
type AuthorScore struct {
	UserID int64
	Score  int64
}
