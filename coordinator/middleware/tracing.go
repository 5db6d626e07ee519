package middleware

import (
	"context"

	"github.com/absmach/fedcoord/coordinator"
	"github.com/absmach/fedcoord/pkg/fl"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ coordinator.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    coordinator.Service
}

func Tracing(tracer trace.Tracer, svc coordinator.Service) coordinator.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) RegisterNode(ctx context.Context, nodeID string, weights fl.Vector) (resp fl.Node, err error) {
	ctx, span := tm.tracer.Start(ctx, "register-node", trace.WithAttributes(
		attribute.String("node_id", nodeID),
		attribute.Int("dimension", weights.Dim()),
	))
	defer endSpan(span, &err)

	return tm.svc.RegisterNode(ctx, nodeID, weights)
}

func (tm *tracing) UpdateNode(ctx context.Context, nodeID string, weights fl.Vector, dataSize int64, accuracy float64) (resp fl.ContributionRecord, err error) {
	ctx, span := tm.tracer.Start(ctx, "update-node", trace.WithAttributes(
		attribute.String("node_id", nodeID),
		attribute.Int64("data_size", dataSize),
		attribute.Float64("accuracy", accuracy),
	))
	defer endSpan(span, &err)

	return tm.svc.UpdateNode(ctx, nodeID, weights, dataSize, accuracy)
}

func (tm *tracing) TriggerAggregation(ctx context.Context) (resp coordinator.AggregationResult, err error) {
	ctx, span := tm.tracer.Start(ctx, "trigger-aggregation")
	defer endSpan(span, &err)

	resp, err = tm.svc.TriggerAggregation(ctx)
	if err == nil {
		span.SetAttributes(
			attribute.Int64("round", int64(resp.Model.Round)),
			attribute.Int("participants", resp.Model.Participants),
			attribute.String("algorithm", resp.Model.Algorithm),
		)
	}

	return resp, err
}

func (tm *tracing) GetCurrentRound(ctx context.Context) uint64 {
	ctx, span := tm.tracer.Start(ctx, "get-current-round")
	defer span.End()

	return tm.svc.GetCurrentRound(ctx)
}

func (tm *tracing) GetGlobalAccuracy(ctx context.Context) float64 {
	ctx, span := tm.tracer.Start(ctx, "get-global-accuracy")
	defer span.End()

	return tm.svc.GetGlobalAccuracy(ctx)
}

func (tm *tracing) GetActiveNodes(ctx context.Context) []fl.Node {
	ctx, span := tm.tracer.Start(ctx, "get-active-nodes")
	defer span.End()

	return tm.svc.GetActiveNodes(ctx)
}

func (tm *tracing) GetBestOrGlobalModel(ctx context.Context) fl.GlobalModel {
	ctx, span := tm.tracer.Start(ctx, "get-best-model")
	defer span.End()

	return tm.svc.GetBestOrGlobalModel(ctx)
}

func (tm *tracing) GetGlobalModel(ctx context.Context) fl.GlobalModel {
	ctx, span := tm.tracer.Start(ctx, "get-global-model")
	defer span.End()

	return tm.svc.GetGlobalModel(ctx)
}

func (tm *tracing) GetStatus(ctx context.Context) coordinator.Status {
	ctx, span := tm.tracer.Start(ctx, "get-status")
	defer span.End()

	return tm.svc.GetStatus(ctx)
}

func (tm *tracing) GetNode(ctx context.Context, nodeID string) (resp fl.Node, err error) {
	ctx, span := tm.tracer.Start(ctx, "get-node", trace.WithAttributes(
		attribute.String("node_id", nodeID),
	))
	defer endSpan(span, &err)

	return tm.svc.GetNode(ctx, nodeID)
}

func (tm *tracing) ListNodes(ctx context.Context, offset, limit uint64) (resp coordinator.NodePage, err error) {
	ctx, span := tm.tracer.Start(ctx, "list-nodes", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer endSpan(span, &err)

	return tm.svc.ListNodes(ctx, offset, limit)
}

func (tm *tracing) GetRoundModel(ctx context.Context, round uint64) (resp fl.GlobalModel, err error) {
	ctx, span := tm.tracer.Start(ctx, "get-round-model", trace.WithAttributes(
		attribute.Int64("round", int64(round)),
	))
	defer endSpan(span, &err)

	return tm.svc.GetRoundModel(ctx, round)
}

func (tm *tracing) ListContributions(ctx context.Context, nodeID string, offset, limit uint64) (resp coordinator.ContributionPage, err error) {
	ctx, span := tm.tracer.Start(ctx, "list-contributions", trace.WithAttributes(
		attribute.String("node_id", nodeID),
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer endSpan(span, &err)

	return tm.svc.ListContributions(ctx, nodeID, offset, limit)
}

func (tm *tracing) Restore(ctx context.Context) (err error) {
	ctx, span := tm.tracer.Start(ctx, "restore")
	defer endSpan(span, &err)

	return tm.svc.Restore(ctx)
}

func (tm *tracing) Shutdown(ctx context.Context) (err error) {
	ctx, span := tm.tracer.Start(ctx, "shutdown")
	defer endSpan(span, &err)

	return tm.svc.Shutdown(ctx)
}

func endSpan(span trace.Span, err *error) {
	if *err != nil {
		span.RecordError(*err)
		span.SetStatus(codes.Error, (*err).Error())
	}
	span.End()
}
