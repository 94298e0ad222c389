package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/pulabus/backend/src/models"
)

func TestNotificationsLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := NewNotificationService(db, func() time.Time {
		at = at.Add(time.Minute)
		return at
	})

	first, err := svc.Notify(ctx, "emp-clerk", models.NotificationExpenseApproved, "Expense approved", "ok", map[string]string{"expense_id": "exp-1"})
	require.NoError(t, err)
	_, err = svc.Notify(ctx, "emp-clerk", models.NotificationExpenseRejected, "Expense rejected", "no", nil)
	require.NoError(t, err)
	_, err = svc.Notify(ctx, "emp-other", models.NotificationExpenseApproved, "Expense approved", "ok", nil)
	require.NoError(t, err)

	// Only the addressee's notifications, newest first.
	notifications, err := svc.ListForUser(ctx, "emp-clerk")
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	assert.Equal(t, models.NotificationExpenseRejected, notifications[0].Type)
	assert.Equal(t, first.ID, notifications[1].ID)
	assert.Equal(t, "exp-1", notifications[1].Payload["expense_id"])
	assert.False(t, notifications[0].Read)

	require.NoError(t, svc.MarkRead(ctx, first.ID))
	notifications, err = svc.ListForUser(ctx, "emp-clerk")
	require.NoError(t, err)
	assert.True(t, notifications[1].Read)

	require.ErrorIs(t, svc.MarkRead(ctx, "missing-id"), ErrNotFound)
}
