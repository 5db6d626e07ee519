package middleware

import (
	"context"
	"time"

	"github.com/absmach/fedcoord/coordinator"
	"github.com/absmach/fedcoord/pkg/fl"
	"github.com/go-kit/kit/metrics"
)

var _ coordinator.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter  metrics.Counter
	latency  metrics.Histogram
	round    metrics.Gauge
	accuracy metrics.Gauge
	svc      coordinator.Service
}

// Metrics instruments every call and tracks the committed round and its
// accuracy in the round and accuracy gauges.
func Metrics(counter metrics.Counter, latency metrics.Histogram, round, accuracy metrics.Gauge, svc coordinator.Service) coordinator.Service {
	return &metricsMiddleware{
		counter:  counter,
		latency:  latency,
		round:    round,
		accuracy: accuracy,
		svc:      svc,
	}
}

func (mm *metricsMiddleware) RegisterNode(ctx context.Context, nodeID string, weights fl.Vector) (fl.Node, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "register-node").Add(1)
		mm.latency.With("method", "register-node").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.RegisterNode(ctx, nodeID, weights)
}

func (mm *metricsMiddleware) UpdateNode(ctx context.Context, nodeID string, weights fl.Vector, dataSize int64, accuracy float64) (fl.ContributionRecord, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "update-node").Add(1)
		mm.latency.With("method", "update-node").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.UpdateNode(ctx, nodeID, weights, dataSize, accuracy)
}

func (mm *metricsMiddleware) TriggerAggregation(ctx context.Context) (coordinator.AggregationResult, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "trigger-aggregation").Add(1)
		mm.latency.With("method", "trigger-aggregation").Observe(time.Since(begin).Seconds())
	}(time.Now())

	res, err := mm.svc.TriggerAggregation(ctx)
	if err == nil {
		mm.round.Set(float64(res.Model.Round))
		mm.accuracy.Set(res.Model.Accuracy)
	}

	return res, err
}

func (mm *metricsMiddleware) GetCurrentRound(ctx context.Context) uint64 {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-current-round").Add(1)
		mm.latency.With("method", "get-current-round").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetCurrentRound(ctx)
}

func (mm *metricsMiddleware) GetGlobalAccuracy(ctx context.Context) float64 {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-global-accuracy").Add(1)
		mm.latency.With("method", "get-global-accuracy").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetGlobalAccuracy(ctx)
}

func (mm *metricsMiddleware) GetActiveNodes(ctx context.Context) []fl.Node {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-active-nodes").Add(1)
		mm.latency.With("method", "get-active-nodes").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetActiveNodes(ctx)
}

func (mm *metricsMiddleware) GetBestOrGlobalModel(ctx context.Context) fl.GlobalModel {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-best-model").Add(1)
		mm.latency.With("method", "get-best-model").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetBestOrGlobalModel(ctx)
}

func (mm *metricsMiddleware) GetGlobalModel(ctx context.Context) fl.GlobalModel {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-global-model").Add(1)
		mm.latency.With("method", "get-global-model").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetGlobalModel(ctx)
}

func (mm *metricsMiddleware) GetStatus(ctx context.Context) coordinator.Status {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-status").Add(1)
		mm.latency.With("method", "get-status").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetStatus(ctx)
}

func (mm *metricsMiddleware) GetNode(ctx context.Context, nodeID string) (fl.Node, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-node").Add(1)
		mm.latency.With("method", "get-node").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetNode(ctx, nodeID)
}

func (mm *metricsMiddleware) ListNodes(ctx context.Context, offset, limit uint64) (coordinator.NodePage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-nodes").Add(1)
		mm.latency.With("method", "list-nodes").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListNodes(ctx, offset, limit)
}

func (mm *metricsMiddleware) GetRoundModel(ctx context.Context, round uint64) (fl.GlobalModel, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-round-model").Add(1)
		mm.latency.With("method", "get-round-model").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetRoundModel(ctx, round)
}

func (mm *metricsMiddleware) ListContributions(ctx context.Context, nodeID string, offset, limit uint64) (coordinator.ContributionPage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-contributions").Add(1)
		mm.latency.With("method", "list-contributions").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListContributions(ctx, nodeID, offset, limit)
}

func (mm *metricsMiddleware) Restore(ctx context.Context) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "restore").Add(1)
		mm.latency.With("method", "restore").Observe(time.Since(begin).Seconds())
	}(time.Now())

	if err := mm.svc.Restore(ctx); err != nil {
		return err
	}
	m := mm.svc.GetGlobalModel(ctx)
	mm.round.Set(float64(m.Round))
	mm.accuracy.Set(m.Accuracy)

	return nil
}

func (mm *metricsMiddleware) Shutdown(ctx context.Context) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "shutdown").Add(1)
		mm.latency.With("method", "shutdown").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Shutdown(ctx)
}
