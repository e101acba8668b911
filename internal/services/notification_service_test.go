package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/accesskeep/accesskeep/internal/models"
)

func TestSendIncrementsPendingCount(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		_, err := env.notifications.Send(ctx, SendNotificationInput{
			UserID:  "alice",
			Type:    models.NotificationTypeDiscovery,
			Subject: "client/C.1000000000000000",
			Message: "client checked in",
		})
		require.NoError(t, err)

		count, err := env.notifications.PendingCount(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, i, count)
	}

	// Other users are unaffected.
	count, err := env.notifications.PendingCount(ctx, "bob")
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestSendRequiresUserAndType(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})
	ctx := context.Background()

	_, err := env.notifications.Send(ctx, SendNotificationInput{Type: "discovery"})
	require.Error(t, err)

	_, err = env.notifications.Send(ctx, SendNotificationInput{UserID: "alice"})
	require.Error(t, err)
}

func TestListPendingSinceTimestamp(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})
	ctx := context.Background()

	env.setClockSeconds(42)
	_, err := env.notifications.Send(ctx, SendNotificationInput{
		UserID:  "alice",
		Type:    models.NotificationTypeDiscovery,
		Message: "first",
	})
	require.NoError(t, err)

	env.setClockSeconds(44)
	_, err = env.notifications.Send(ctx, SendNotificationInput{
		UserID:  "alice",
		Type:    models.NotificationTypeViewObject,
		Message: "second",
	})
	require.NoError(t, err)

	all, err := env.notifications.ListPending(ctx, "alice", nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "first", all[0].Message) // ascending, stable

	since := int64(43_000_000)
	filtered, err := env.notifications.ListPending(ctx, "alice", &since)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, "second", filtered[0].Message)
	require.EqualValues(t, 44_000_000, filtered[0].TimestampMicros)
}

func TestListAndResetReturnsFullHistoryAndClearsPending(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})
	ctx := context.Background()

	env.setClockSeconds(10)
	_, err := env.notifications.Send(ctx, SendNotificationInput{
		UserID:  "alice",
		Type:    models.NotificationTypeDiscovery,
		Message: "older",
	})
	require.NoError(t, err)

	// First reset flips the older entry to seen.
	_, _, err = env.notifications.ListAndReset(ctx, ListAndResetInput{UserID: "alice"})
	require.NoError(t, err)

	env.setClockSeconds(20)
	_, err = env.notifications.Send(ctx, SendNotificationInput{
		UserID:  "alice",
		Type:    models.NotificationTypeViewObject,
		Message: "newer",
	})
	require.NoError(t, err)

	items, total, err := env.notifications.ListAndReset(ctx, ListAndResetInput{UserID: "alice"})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, items, 2)
	// Most-recent-first over pending and previously seen alike.
	require.Equal(t, "newer", items[0].Message)
	require.Equal(t, "older", items[1].Message)

	count, err := env.notifications.PendingCount(ctx, "alice")
	require.NoError(t, err)
	require.Zero(t, count)

	// Seen entries are not re-flagged: the pending view stays empty.
	pending, err := env.notifications.ListPending(ctx, "alice", nil)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestListAndResetPaginationAndFilter(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})
	ctx := context.Background()

	messages := []string{"hunt started", "hunt completed", "client crashed"}
	for i, message := range messages {
		env.setClockSeconds(int64(100 + i))
		_, err := env.notifications.Send(ctx, SendNotificationInput{
			UserID:  "alice",
			Type:    models.NotificationTypeDiscovery,
			Subject: "hunt/H.00000001",
			Message: message,
		})
		require.NoError(t, err)
	}

	page, total, err := env.notifications.ListAndReset(ctx, ListAndResetInput{
		UserID: "alice",
		Offset: 1,
		Count:  1,
	})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, page, 1)
	require.Equal(t, "hunt completed", page[0].Message)

	filtered, total, err := env.notifications.ListAndReset(ctx, ListAndResetInput{
		UserID: "alice",
		Filter: "hunt",
	})
	require.NoError(t, err)
	// Substring matches against message or subject; the subject mentions the
	// hunt on every entry.
	require.EqualValues(t, 3, total)
	require.Len(t, filtered, 3)

	filtered, total, err = env.notifications.ListAndReset(ctx, ListAndResetInput{
		UserID: "alice",
		Filter: "crashed",
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, filtered, 1)
	require.Equal(t, "client crashed", filtered[0].Message)
}

func TestListAndResetWithNothingPendingIsNoOp(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})
	ctx := context.Background()

	items, total, err := env.notifications.ListAndReset(ctx, ListAndResetInput{UserID: "alice"})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, items)
}
