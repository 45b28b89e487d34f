package outbox

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
	"github.com/vladislavdragonenkov/minimart/internal/metrics"
	"github.com/vladislavdragonenkov/minimart/internal/storage/memory"
)

func TestCleanupWorker_DeleteProcessed_Batches(t *testing.T) {
	t.Parallel()

	repo := &stubPruner{deleteResults: []int{2, 2, 1}}
	worker := NewCleanupWorker(repo, WithCleanupBatchSize(2))

	deleted, err := worker.DeleteProcessed(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, 5, deleted)
	require.Equal(t, 3, repo.calls())
}

func TestCleanupWorker_DeleteProcessed_Error(t *testing.T) {
	t.Parallel()

	repo := &stubPruner{deleteErrors: []error{errors.New("boom")}}
	worker := NewCleanupWorker(repo, WithCleanupBatchSize(10))

	deleted, err := worker.DeleteProcessed(context.Background(), time.Now().UTC())
	require.Error(t, err)
	require.Zero(t, deleted)
}

func TestCleanupWorker_RetentionKeepsRecentEvents(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	for _, id := range []string{"a", "b", "c"} {
		_, err := repo.Enqueue(domain.OutboxMessage{ID: id})
		require.NoError(t, err)
	}
	require.NoError(t, repo.MarkSent("a"))
	require.NoError(t, repo.MarkFailed("b"))

	reg := prometheus.NewRegistry()
	m := metrics.NewOutboxMetricsWithRegisterer(reg)
	worker := NewCleanupWorker(repo, WithRetention(time.Hour), WithCleanupMetrics(m))

	// Записи обновлены только что, удерживаются retention.
	worker.cleanup(context.Background())
	require.Equal(t, 3, repo.Len())

	worker.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	worker.cleanup(context.Background())
	require.Equal(t, 1, repo.Len())

	expected := `
# HELP pos_outbox_cleanup_deleted_total Total number of processed outbox records removed from memory.
# TYPE pos_outbox_cleanup_deleted_total counter
pos_outbox_cleanup_deleted_total 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "pos_outbox_cleanup_deleted_total"))
}

func TestCleanupWorker_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	repo := &stubPruner{deleteResults: []int{0, 0, 0}}
	worker := NewCleanupWorker(repo, WithCleanupInterval(5*time.Millisecond), WithCleanupBatchSize(10))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
	require.NotZero(t, repo.calls())
}

type stubPruner struct {
	mu sync.Mutex

	deleteResults []int
	deleteErrors  []error
	callCount     int
}

func (s *stubPruner) DeleteProcessedBefore(_ time.Time, _ int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callCount++

	if len(s.deleteErrors) > 0 {
		err := s.deleteErrors[0]
		s.deleteErrors = s.deleteErrors[1:]
		if err != nil {
			return 0, err
		}
	}
	if len(s.deleteResults) == 0 {
		return 0, nil
	}
	result := s.deleteResults[0]
	s.deleteResults = s.deleteResults[1:]
	return result, nil
}

func (s *stubPruner) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount
}
