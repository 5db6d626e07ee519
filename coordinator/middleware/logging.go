package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/fedcoord/coordinator"
	"github.com/absmach/fedcoord/pkg/fl"
)

var _ coordinator.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    coordinator.Service
}

func Logging(logger *slog.Logger, svc coordinator.Service) coordinator.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) RegisterNode(ctx context.Context, nodeID string, weights fl.Vector) (resp fl.Node, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("node",
				slog.String("id", nodeID),
				slog.Int("dimension", weights.Dim()),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Register node failed", args...)

			return
		}
		lm.logger.Info("Register node completed successfully", args...)
	}(time.Now())

	return lm.svc.RegisterNode(ctx, nodeID, weights)
}

func (lm *loggingMiddleware) UpdateNode(ctx context.Context, nodeID string, weights fl.Vector, dataSize int64, accuracy float64) (resp fl.ContributionRecord, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("node",
				slog.String("id", nodeID),
				slog.Int64("data_size", dataSize),
				slog.Float64("accuracy", accuracy),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Update node failed", args...)

			return
		}
		args = append(args, slog.Group("contribution",
			slog.Uint64("round", resp.Round),
			slog.Float64("score", resp.Score),
		))
		lm.logger.Info("Update node completed successfully", args...)
	}(time.Now())

	return lm.svc.UpdateNode(ctx, nodeID, weights, dataSize, accuracy)
}

func (lm *loggingMiddleware) TriggerAggregation(ctx context.Context) (resp coordinator.AggregationResult, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Trigger aggregation failed", args...)

			return
		}
		args = append(args, slog.Group("model",
			slog.Uint64("round", resp.Model.Round),
			slog.Float64("accuracy", resp.Model.Accuracy),
			slog.Int("participants", resp.Model.Participants),
			slog.Int64("total_data_size", resp.Model.TotalDataSize),
			slog.String("algorithm", resp.Model.Algorithm),
		))
		lm.logger.Info("Trigger aggregation completed successfully", args...)
	}(time.Now())

	return lm.svc.TriggerAggregation(ctx)
}

func (lm *loggingMiddleware) GetCurrentRound(ctx context.Context) uint64 {
	return lm.svc.GetCurrentRound(ctx)
}

func (lm *loggingMiddleware) GetGlobalAccuracy(ctx context.Context) float64 {
	return lm.svc.GetGlobalAccuracy(ctx)
}

func (lm *loggingMiddleware) GetActiveNodes(ctx context.Context) []fl.Node {
	return lm.svc.GetActiveNodes(ctx)
}

func (lm *loggingMiddleware) GetBestOrGlobalModel(ctx context.Context) fl.GlobalModel {
	return lm.svc.GetBestOrGlobalModel(ctx)
}

func (lm *loggingMiddleware) GetGlobalModel(ctx context.Context) fl.GlobalModel {
	return lm.svc.GetGlobalModel(ctx)
}

// GetStatus is polled by the round trigger, so it logs at debug level.
func (lm *loggingMiddleware) GetStatus(ctx context.Context) (resp coordinator.Status) {
	defer func(begin time.Time) {
		lm.logger.Debug("Get status completed successfully",
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("round", resp.Round),
			slog.Int("pending_submissions", resp.PendingSubmissions),
		)
	}(time.Now())

	return lm.svc.GetStatus(ctx)
}

func (lm *loggingMiddleware) GetNode(ctx context.Context, nodeID string) (resp fl.Node, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("node",
				slog.String("id", nodeID),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get node failed", args...)

			return
		}
		lm.logger.Info("Get node completed successfully", args...)
	}(time.Now())

	return lm.svc.GetNode(ctx, nodeID)
}

func (lm *loggingMiddleware) ListNodes(ctx context.Context, offset, limit uint64) (resp coordinator.NodePage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List nodes failed", args...)

			return
		}
		lm.logger.Info("List nodes completed successfully", args...)
	}(time.Now())

	return lm.svc.ListNodes(ctx, offset, limit)
}

func (lm *loggingMiddleware) GetRoundModel(ctx context.Context, round uint64) (resp fl.GlobalModel, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("round", round),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get round model failed", args...)

			return
		}
		lm.logger.Info("Get round model completed successfully", args...)
	}(time.Now())

	return lm.svc.GetRoundModel(ctx, round)
}

func (lm *loggingMiddleware) ListContributions(ctx context.Context, nodeID string, offset, limit uint64) (resp coordinator.ContributionPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("node",
				slog.String("id", nodeID),
			),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List contributions failed", args...)

			return
		}
		lm.logger.Info("List contributions completed successfully", args...)
	}(time.Now())

	return lm.svc.ListContributions(ctx, nodeID, offset, limit)
}

func (lm *loggingMiddleware) Restore(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Restore failed", args...)

			return
		}
		lm.logger.Info("Restore completed successfully", args...)
	}(time.Now())

	return lm.svc.Restore(ctx)
}

func (lm *loggingMiddleware) Shutdown(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Shutdown failed", args...)

			return
		}
		lm.logger.Info("Shutdown completed successfully", args...)
	}(time.Now())

	return lm.svc.Shutdown(ctx)
}
