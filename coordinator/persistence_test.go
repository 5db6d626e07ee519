package coordinator_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/absmach/fedcoord/coordinator"
	"github.com/absmach/fedcoord/pkg/fl"
	"github.com/absmach/fedcoord/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowModels delays every save and records the order of saved rounds.
type slowModels struct {
	storage.ModelRepository
	delay   time.Duration
	started chan uint64

	mu     sync.Mutex
	rounds []uint64
}

func (r *slowModels) Save(ctx context.Context, m fl.GlobalModel) error {
	r.started <- m.Round
	time.Sleep(r.delay)
	r.mu.Lock()
	r.rounds = append(r.rounds, m.Round)
	r.mu.Unlock()

	return r.ModelRepository.Save(ctx, m)
}

func (r *slowModels) saved() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]uint64(nil), r.rounds...)
}

// ctxModels rejects writes on a done context, like a database driver.
type ctxModels struct {
	storage.ModelRepository
}

func (r ctxModels) Save(ctx context.Context, m fl.GlobalModel) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.ModelRepository.Save(ctx, m)
}

func TestUpdatesDoNotWaitForPersistence(t *testing.T) {
	repos, err := storage.NewRepositories(storage.Config{Type: "memory"})
	require.Nil(t, err)
	models := &slowModels{
		ModelRepository: repos.Models,
		delay:           300 * time.Millisecond,
		started:         make(chan uint64, 2),
	}
	repos.Models = models

	svc, err := coordinator.NewService(coordinator.Config{}, repos, nil, nil, logger)
	require.Nil(t, err)
	ctx := context.Background()

	_, err = svc.RegisterNode(ctx, "a", fl.Vector{1, 2})
	require.Nil(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.TriggerAggregation(ctx)
		assert.Nil(t, err)
	}()
	assert.Equal(t, uint64(1), <-models.started)

	_, err = svc.UpdateNode(ctx, "a", fl.Vector{3, 4}, 10, 0.5)
	require.Nil(t, err)
	go func() {
		defer wg.Done()
		_, err := svc.TriggerAggregation(ctx)
		assert.Nil(t, err)
	}()
	require.Eventually(t, func() bool {
		return svc.GetCurrentRound(ctx) == 2
	}, time.Second, time.Millisecond)

	begin := time.Now()
	_, err = svc.UpdateNode(ctx, "a", fl.Vector{5, 6}, 10, 0.5)
	require.Nil(t, err)
	_, err = svc.RegisterNode(ctx, "b", fl.Vector{7, 8})
	require.Nil(t, err)
	assert.Less(t, time.Since(begin), 100*time.Millisecond, "updates must not wait for storage")

	wg.Wait()
	assert.Equal(t, []uint64{1, 2}, models.saved(), "rounds must be persisted in order")

	latest, err := repos.Models.Latest(ctx)
	require.Nil(t, err)
	assert.Equal(t, uint64(2), latest.Round)
	require.Nil(t, svc.Shutdown(ctx))
}

func TestShutdownHonoursContext(t *testing.T) {
	repos, err := storage.NewRepositories(storage.Config{Type: "memory"})
	require.Nil(t, err)
	models := &slowModels{
		ModelRepository: repos.Models,
		delay:           200 * time.Millisecond,
		started:         make(chan uint64, 1),
	}
	repos.Models = models

	svc, err := coordinator.NewService(coordinator.Config{}, repos, nil, nil, logger)
	require.Nil(t, err)
	ctx := context.Background()

	_, err = svc.RegisterNode(ctx, "a", fl.Vector{1})
	require.Nil(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := svc.TriggerAggregation(ctx)
		assert.Nil(t, err)
	}()
	<-models.started

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.Shutdown(short), context.DeadlineExceeded)

	<-done
	require.Nil(t, svc.Shutdown(ctx))
}

func TestCommittedRoundSurvivesCancelledCaller(t *testing.T) {
	repos, err := storage.NewRepositories(storage.Config{Type: "memory"})
	require.Nil(t, err)
	repos.Models = ctxModels{ModelRepository: repos.Models}

	svc, err := coordinator.NewService(coordinator.Config{}, repos, nil, nil, logger)
	require.Nil(t, err)
	ctx := context.Background()

	_, err = svc.RegisterNode(ctx, "a", fl.Vector{1, 2})
	require.Nil(t, err)
	_, err = svc.TriggerAggregation(ctx)
	require.Nil(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = svc.UpdateNode(ctx, "a", fl.Vector{3, 4}, 10, 0.5)
	require.Nil(t, err)
	res, err := svc.TriggerAggregation(cancelled)
	require.Nil(t, err)
	assert.Equal(t, uint64(2), res.Model.Round)

	_, err = svc.UpdateNode(ctx, "a", fl.Vector{5, 6}, 10, 0.5)
	require.Nil(t, err)
	_, err = svc.TriggerAggregation(ctx)
	require.Nil(t, err)

	m, err := svc.GetRoundModel(ctx, 2)
	require.Nil(t, err)
	assert.Equal(t, fl.Vector{3, 4}, m.Weights)

	restored, err := coordinator.NewService(coordinator.Config{}, repos, nil, nil, logger)
	require.Nil(t, err)
	require.Nil(t, restored.Restore(ctx))
	assert.Equal(t, uint64(3), restored.GetCurrentRound(ctx))
}
