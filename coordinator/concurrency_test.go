package coordinator_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/absmach/fedcoord/coordinator"
	pkgerrors "github.com/absmach/fedcoord/pkg/errors"
	"github.com/absmach/fedcoord/pkg/fl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentSubmissionsAndAggregation(t *testing.T) {
	const (
		nodes   = 8
		updates = 50
		dim     = 4
	)

	svc := newService(t, coordinator.Config{Dimension: dim})
	ctx := context.Background()

	for i := range nodes {
		_, err := svc.RegisterNode(ctx, fmt.Sprintf("node-%d", i), fl.Zeros(dim))
		require.Nil(t, err)
	}

	var (
		writers sync.WaitGroup
		readers sync.WaitGroup
		stop    = make(chan struct{})
	)

	for i := range nodes {
		writers.Add(1)
		go func(id string) {
			defer writers.Done()
			for j := range updates {
				w := fl.Zeros(dim)
				w[j%dim] = float64(j)
				_, err := svc.UpdateNode(ctx, id, w, int64(j+1), 0.5)
				assert.Nil(t, err)
			}
		}(fmt.Sprintf("node-%d", i))
	}

	for range 4 {
		readers.Add(1)
		go func() {
			defer readers.Done()
			var last uint64
			for {
				select {
				case <-stop:
					return
				default:
				}
				m := svc.GetGlobalModel(ctx)
				assert.Equal(t, dim, m.Weights.Dim())
				assert.GreaterOrEqual(t, m.Round, last, "rounds must never go backwards")
				last = m.Round
				_ = svc.GetStatus(ctx)
				_ = svc.GetActiveNodes(ctx)
			}
		}()
	}

	var results []coordinator.AggregationResult
	aggregated := make(chan struct{})
	go func() {
		defer close(aggregated)
		for {
			select {
			case <-stop:
				return
			default:
			}
			res, err := svc.TriggerAggregation(ctx)
			if errors.Is(err, pkgerrors.ErrNoSubmissions) {
				continue
			}
			assert.Nil(t, err)
			results = append(results, res)
		}
	}()

	writers.Wait()
	close(stop)
	<-aggregated
	readers.Wait()

	if res, err := svc.TriggerAggregation(ctx); err == nil {
		results = append(results, res)
	}

	credited := make(map[string]float64)
	for i, res := range results {
		assert.Equal(t, uint64(i+1), res.Model.Round, "rounds must be consecutive")
		for _, rec := range res.Contributions {
			assert.Equal(t, res.Model.Round-1, rec.Round)
			credited[rec.NodeID] += rec.Score
		}
	}
	assert.Equal(t, uint64(len(results)), svc.GetCurrentRound(ctx))

	for i := range nodes {
		id := fmt.Sprintf("node-%d", i)
		n, err := svc.GetNode(ctx, id)
		require.Nil(t, err)
		assert.InDelta(t, credited[id], n.CumulativeContribution, 1e-9)
		assert.Equal(t, int64(updates), n.DataSize, "last write must win")
	}
}

func TestConcurrentUpdatesThenSingleAggregation(t *testing.T) {
	const (
		nodes   = 16
		updates = 20
	)

	svc := newService(t, coordinator.Config{})
	ctx := context.Background()

	for i := range nodes {
		_, err := svc.RegisterNode(ctx, fmt.Sprintf("node-%d", i), fl.Zeros(2))
		require.Nil(t, err)
	}

	var wg sync.WaitGroup
	for i := range nodes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("node-%d", i)
			for j := range updates {
				w := fl.Vector{float64(i), float64(j + 1)}
				_, err := svc.UpdateNode(ctx, id, w, int64(i+1), float64(j+1)/updates)
				assert.Nil(t, err)
			}
		}(i)
	}
	wg.Wait()

	var weighted, total float64
	for i := range nodes {
		weighted += float64(i+1) * float64(i)
		total += float64(i + 1)
	}

	res, err := svc.TriggerAggregation(ctx)
	require.Nil(t, err)
	assert.Equal(t, uint64(1), res.Model.Round)
	assert.Equal(t, nodes, res.Model.Participants)
	assert.Equal(t, int64(total), res.Model.TotalDataSize)
	require.Equal(t, 2, res.Model.Weights.Dim())
	assert.InDelta(t, weighted/total, res.Model.Weights[0], 1e-9)
	assert.InDelta(t, float64(updates), res.Model.Weights[1], 1e-9)
	assert.InDelta(t, 1.0, res.Model.Accuracy, 1e-9)
	assert.Len(t, res.Contributions, nodes)

	_, err = svc.TriggerAggregation(ctx)
	assert.ErrorIs(t, err, pkgerrors.ErrNoSubmissions)
}
