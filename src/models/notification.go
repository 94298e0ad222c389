package models

import "time"

type NotificationType string

const (
	NotificationExpenseApproved NotificationType = "EXPENSE_APPROVED"
	NotificationExpenseRejected NotificationType = "EXPENSE_REJECTED"
)

// Notification is a persisted record addressed to a user; delivery is the
// concern of the excluded application tier.
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Type      NotificationType  `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Payload   map[string]string `json:"payload,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}
