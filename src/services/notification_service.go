package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/username/pulabus/backend/src/models"
)

type notificationServiceImpl struct {
	db  *sql.DB
	now Clock
}

func NewNotificationService(db *sql.DB, now Clock) NotificationService {
	return &notificationServiceImpl{db: db, now: orSystemClock(now)}
}

func (s *notificationServiceImpl) Notify(ctx context.Context, userID string, typ models.NotificationType, title, message string, payload map[string]string) (*models.Notification, error) {
	if payload == nil {
		payload = map[string]string{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal notification payload: %w", err)
	}

	n := &models.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		Payload:   payload,
		CreatedAt: s.now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, type, title, message, payload, read, created_at)
		 VALUES (?,?,?,?,?,?,0,?)`,
		n.ID, n.UserID, string(n.Type), n.Title, n.Message, string(raw), fmtTime(n.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	return n, nil
}

func (s *notificationServiceImpl) ListForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, type, title, message, payload, read, created_at
		 FROM notifications WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var typ, payload, createdAt string
		var read int
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Message, &payload, &read, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Type = models.NotificationType(typ)
		n.Read = read != 0
		n.CreatedAt = parseTime(createdAt)
		if err := json.Unmarshal([]byte(payload), &n.Payload); err != nil {
			n.Payload = nil
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *notificationServiceImpl) MarkRead(ctx context.Context, notificationID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE id = ?`, notificationID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("notification %s: %w", notificationID, ErrNotFound)
	}
	return nil
}
