package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
)

func TestOutboxRepository_EnqueueAndPull(t *testing.T) {
	repo := NewOutboxRepository()

	msg := domain.OutboxMessage{
		AggregateType: domain.AggregateTypeSale,
		AggregateID:   "receipt-1",
		EventType:     domain.EventTypeSaleCompleted,
		Payload:       []byte(`{"receipt_id":"receipt-1"}`),
	}

	saved, err := repo.Enqueue(msg)
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	pending, err := repo.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, saved.ID, pending[0].ID)
}

func TestOutboxRepository_PullKeepsEnqueueOrder(t *testing.T) {
	repo := NewOutboxRepository()

	for _, id := range []string{"c", "a", "b"} {
		_, err := repo.Enqueue(domain.OutboxMessage{ID: id})
		require.NoError(t, err)
	}

	pending, err := repo.PullPending(2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, "c", pending[0].ID)
	require.Equal(t, "a", pending[1].ID)
}

func TestOutboxRepository_RejectsDuplicateID(t *testing.T) {
	repo := NewOutboxRepository()

	_, err := repo.Enqueue(domain.OutboxMessage{ID: "dup"})
	require.NoError(t, err)
	_, err = repo.Enqueue(domain.OutboxMessage{ID: "dup"})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestOutboxRepository_MarkSentAndFailed(t *testing.T) {
	repo := NewOutboxRepository()

	first, err := repo.Enqueue(domain.OutboxMessage{AggregateType: domain.AggregateTypeSale})
	require.NoError(t, err)
	second, err := repo.Enqueue(domain.OutboxMessage{AggregateType: domain.AggregateTypeSale})
	require.NoError(t, err)

	require.NoError(t, repo.MarkSent(first.ID))
	require.NoError(t, repo.MarkFailed(second.ID))
	require.ErrorIs(t, repo.MarkFailed("missing"), domain.ErrNotFound)

	require.Empty(t, repo.AllPending())
}

func TestOutboxRepository_Stats(t *testing.T) {
	repo := NewOutboxRepository()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	stats, err := repo.Stats()
	require.NoError(t, err)
	require.Zero(t, stats.PendingCount)
	require.True(t, stats.OldestPendingAt.IsZero())

	first, err := repo.Enqueue(domain.OutboxMessage{})
	require.NoError(t, err)
	_, err = repo.Enqueue(domain.OutboxMessage{})
	require.NoError(t, err)

	stats, err = repo.Stats()
	require.NoError(t, err)
	require.Equal(t, 2, stats.PendingCount)
	require.Equal(t, base.Add(time.Minute), stats.OldestPendingAt)

	require.NoError(t, repo.MarkSent(first.ID))
	stats, err = repo.Stats()
	require.NoError(t, err)
	require.Equal(t, 1, stats.PendingCount)
	require.Equal(t, base.Add(2*time.Minute), stats.OldestPendingAt)
}

func TestOutboxRepository_DeleteProcessedBefore(t *testing.T) {
	repo := NewOutboxRepository()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	current := base
	repo.now = func() time.Time { return current }

	for _, id := range []string{"sent-old", "failed-old", "pending", "sent-new"} {
		_, err := repo.Enqueue(domain.OutboxMessage{ID: id})
		require.NoError(t, err)
	}
	require.NoError(t, repo.MarkSent("sent-old"))
	require.NoError(t, repo.MarkFailed("failed-old"))
	current = base.Add(time.Hour)
	require.NoError(t, repo.MarkSent("sent-new"))

	deleted, err := repo.DeleteProcessedBefore(base.Add(time.Minute), 1)
	require.NoError(t, err)
	require.Equal(t, 1, deleted)
	require.Equal(t, 3, repo.Len())

	deleted, err = repo.DeleteProcessedBefore(base.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Equal(t, 1, deleted)
	require.Equal(t, 2, repo.Len())

	// pending не удаляется даже если старше границы.
	pending, err := repo.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "pending", pending[0].ID)

	deleted, err = repo.DeleteProcessedBefore(base.Add(2*time.Hour), 0)
	require.NoError(t, err)
	require.Zero(t, deleted)
}
