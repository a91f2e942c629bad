package domain

import "time"

type QueueID int64

type ItemID int64

// Queue is a named, owner-scoped ordered list of items.
type Queue struct {
	ID        QueueID   `json:"id"`
	Name      string    `json:"name"`
	UserID    UserID    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// OwnedBy reports whether the queue belongs to the given user.
func (q *Queue) OwnedBy(userID UserID) bool {
	return q != nil && q.UserID == userID
}

// QueueItem is one entry of a queue. Items are ordered by ascending
// Position, ties broken by ascending ID.
type QueueItem struct {
	ID        ItemID    `json:"id"`
	QueueID   QueueID   `json:"queueId"`
	Text      string    `json:"text"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
}

// ItemInput carries the caller-supplied fields of an add or update.
// Position is a pointer so a missing value can be told apart from zero.
type ItemInput struct {
	Text     string
	Position *int
}

// Before reports whether item a sorts ahead of item b.
func Before(a, b *QueueItem) bool {
	if a.Position != b.Position {
		return a.Position < b.Position
	}
	return a.ID < b.ID
}
