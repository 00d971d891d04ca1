package audit

import (
	"time"

	"github.com/google/uuid"
)

const ActionCreatedSubmission = "created_submission"

// Entry is an append-only record of a notable user action.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

func NewEntry(userID, action string, at time.Time) Entry {
	return Entry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    action,
		CreatedAt: at,
	}
}
