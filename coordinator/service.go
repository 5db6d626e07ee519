package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	pkgerrors "github.com/absmach/fedcoord/pkg/errors"
	"github.com/absmach/fedcoord/pkg/fl"
	"github.com/absmach/fedcoord/pkg/storage"
)

const defLimit = 100

var errAlreadyStarted = fmt.Errorf("%w: coordinator already has state, restore must run first", pkgerrors.ErrEntityExists)

type service struct {
	// mu guards the registry and round progression. Model reads go through
	// the atomic pointers in rounds and do not take it.
	mu       sync.RWMutex
	registry *registry
	rounds   *rounds
	window   uint64

	// persisted is closed once the most recently committed round has been
	// written to storage. Each commit swaps it under mu and waits for the
	// previous one outside of mu. Storage writes happen in round order and
	// are never awaited while mu is held.
	persisted chan struct{}

	repos    *storage.Repositories
	notifier Notifier
	rewards  RewardDispatcher
	logger   *slog.Logger
}

// NewService builds a coordinator. repos may be nil, in which case round
// history is kept in memory. notifier and rewards may be nil.
func NewService(cfg Config, repos *storage.Repositories, notifier Notifier, rewards RewardDispatcher, logger *slog.Logger) (Service, error) {
	aggregator, err := fl.NewAggregator(cfg.Aggregation, cfg.TrimRatio)
	if err != nil {
		return nil, err
	}
	if cfg.Dimension < 0 {
		return nil, fmt.Errorf("%w: dimension must not be negative", pkgerrors.ErrInvalidData)
	}
	if cfg.ActivityWindow == 0 {
		cfg.ActivityWindow = DefActivityWindow
	}
	if repos == nil {
		if repos, err = storage.NewRepositories(storage.Config{Type: "memory"}); err != nil {
			return nil, err
		}
	}
	if notifier == nil {
		notifier = NewNopNotifier()
	}
	if rewards == nil {
		rewards = nopDispatcher{}
	}

	persisted := make(chan struct{})
	close(persisted)

	return &service{
		persisted: persisted,
		registry:  newRegistry(cfg.Dimension, fl.NewSaturatingScorer(cfg.HalfPoint)),
		rounds:    newRounds(aggregator, cfg.Dimension),
		window:    cfg.ActivityWindow,
		repos:     repos,
		notifier:  notifier,
		rewards:   rewards,
		logger:    logger,
	}, nil
}

func (svc *service) RegisterNode(ctx context.Context, nodeID string, weights fl.Vector) (fl.Node, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	round := svc.rounds.round()
	n, created, err := svc.registry.register(nodeID, weights, round, time.Now().UTC())
	if err != nil {
		return fl.Node{}, err
	}
	if created {
		svc.rounds.fixDimension(svc.registry.dim)
	}
	n.Active = fl.IsActive(n.LastSubmittedRound, round, svc.window)

	return n, nil
}

func (svc *service) UpdateNode(ctx context.Context, nodeID string, weights fl.Vector, dataSize int64, accuracy float64) (fl.ContributionRecord, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	return svc.registry.update(nodeID, weights, dataSize, accuracy, svc.rounds.round(), time.Now().UTC())
}

func (svc *service) TriggerAggregation(ctx context.Context) (AggregationResult, error) {
	svc.mu.Lock()
	subs := svc.registry.submissions()
	if len(subs) == 0 {
		svc.mu.Unlock()

		return AggregationResult{}, pkgerrors.ErrNoSubmissions
	}

	model, records, err := svc.rounds.aggregate(subs, svc.registry.dim, time.Now().UTC())
	if err != nil {
		svc.mu.Unlock()

		return AggregationResult{}, err
	}
	svc.registry.clearPending()
	svc.registry.credit(records)

	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.NodeID
	}
	nodes := svc.registry.snapshots(ids...)
	prev, done := svc.nextTurn()
	svc.mu.Unlock()

	// The round is committed; failures from here on are logged only and
	// must not depend on the caller staying around.
	ctx = context.WithoutCancel(ctx)
	<-prev
	svc.persist(ctx, model, records, nodes)
	close(done)

	if err := svc.notifier.NotifyRound(ctx, model); err != nil {
		svc.logger.WarnContext(ctx, "failed to publish round notification",
			slog.Uint64("round", model.Round),
			slog.Any("error", err),
		)
	}
	svc.rewards.Dispatch(ctx, records)

	return AggregationResult{
		Model:         model,
		Contributions: records,
	}, nil
}

func (svc *service) GetCurrentRound(ctx context.Context) uint64 {
	return svc.rounds.round()
}

func (svc *service) GetGlobalAccuracy(ctx context.Context) float64 {
	return svc.rounds.model().Accuracy
}

func (svc *service) GetActiveNodes(ctx context.Context) []fl.Node {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	return svc.registry.active(svc.rounds.round(), svc.window)
}

func (svc *service) GetBestOrGlobalModel(ctx context.Context) fl.GlobalModel {
	if best := svc.rounds.bestModel(); best != nil {
		return best.Clone()
	}

	return svc.rounds.model().Clone()
}

func (svc *service) GetGlobalModel(ctx context.Context) fl.GlobalModel {
	return svc.rounds.model().Clone()
}

func (svc *service) GetStatus(ctx context.Context) Status {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	model := svc.rounds.model()
	st := Status{
		Round:              model.Round,
		GlobalAccuracy:     model.Accuracy,
		Dimension:          svc.registry.dim,
		RegisteredNodes:    len(svc.registry.nodes),
		ActiveNodes:        svc.registry.active(model.Round, svc.window),
		PendingSubmissions: len(svc.registry.pending),
		Algorithm:          model.Algorithm,
	}
	if best := svc.rounds.bestModel(); best != nil {
		st.BestRound = best.Round
		st.BestAccuracy = best.Accuracy
	}

	return st
}

func (svc *service) GetNode(ctx context.Context, nodeID string) (fl.Node, error) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	return svc.registry.get(nodeID, svc.rounds.round(), svc.window)
}

func (svc *service) ListNodes(ctx context.Context, offset, limit uint64) (NodePage, error) {
	if limit == 0 {
		limit = defLimit
	}

	svc.mu.RLock()
	defer svc.mu.RUnlock()

	nodes, total := svc.registry.list(offset, limit, svc.rounds.round(), svc.window)

	return NodePage{
		Offset: offset,
		Limit:  limit,
		Total:  total,
		Nodes:  nodes,
	}, nil
}

func (svc *service) GetRoundModel(ctx context.Context, round uint64) (fl.GlobalModel, error) {
	current := svc.rounds.model()
	switch {
	case round == current.Round:
		return current.Clone(), nil
	case round > current.Round:
		return fl.GlobalModel{}, fmt.Errorf("%w: round %d", pkgerrors.ErrNotFound, round)
	}

	m, err := svc.repos.Models.Get(ctx, round)
	if err != nil {
		if errors.Is(err, storage.ErrRoundNotFound) {
			return fl.GlobalModel{}, fmt.Errorf("%w: round %d", pkgerrors.ErrNotFound, round)
		}

		return fl.GlobalModel{}, err
	}

	return m, nil
}

func (svc *service) ListContributions(ctx context.Context, nodeID string, offset, limit uint64) (ContributionPage, error) {
	if limit == 0 {
		limit = defLimit
	}

	svc.mu.RLock()
	_, known := svc.registry.nodes[nodeID]
	svc.mu.RUnlock()
	if !known {
		return ContributionPage{}, fmt.Errorf("%w: %s", pkgerrors.ErrUnknownNode, nodeID)
	}

	records, total, err := svc.repos.Contributions.ListByNode(ctx, nodeID, offset, limit)
	if err != nil {
		return ContributionPage{}, err
	}
	if records == nil {
		records = []fl.ContributionRecord{}
	}

	return ContributionPage{
		Offset:        offset,
		Limit:         limit,
		Total:         total,
		NodeID:        nodeID,
		Contributions: records,
	}, nil
}

func (svc *service) Restore(ctx context.Context) error {
	nodes, err := svc.loadNodes(ctx)
	if err != nil {
		return err
	}
	latest, best, err := svc.loadModels(ctx)
	if err != nil {
		return err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	if !svc.registry.empty() || svc.rounds.round() != 0 {
		return errAlreadyStarted
	}

	dim := svc.registry.dim
	switch {
	case latest != nil && latest.Weights.Dim() > 0:
		dim = latest.Weights.Dim()
	case len(nodes) > 0:
		dim = nodes[0].Dimension()
	}

	svc.registry.load(nodes, dim)
	svc.rounds.restore(latest, best)
	svc.rounds.fixDimension(dim)

	svc.logger.InfoContext(ctx, "restored coordinator state",
		slog.Int("nodes", len(nodes)),
		slog.Uint64("round", svc.rounds.round()),
		slog.Int("dimension", dim),
	)

	return nil
}

// Shutdown waits for in-flight persistence and saves the latest node
// snapshots so submissions since the last round survive a restart.
func (svc *service) Shutdown(ctx context.Context) error {
	svc.mu.Lock()
	nodes := svc.registry.all()
	prev, done := svc.nextTurn()
	svc.mu.Unlock()

	select {
	case <-prev:
	case <-ctx.Done():
		// Keep the order intact for commits queued behind this one.
		go func() {
			<-prev
			close(done)
		}()

		return ctx.Err()
	}
	defer close(done)

	var errs []error
	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)

			break
		}
		if err := svc.repos.Nodes.Save(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("node %s: %w", n.ID, err))
		}
	}

	return errors.Join(errs...)
}

// nextTurn reserves the next slot in the persistence order. It must be
// called with mu held. The caller waits on prev and closes done when its
// writes are finished.
func (svc *service) nextTurn() (prev <-chan struct{}, done chan struct{}) {
	prev = svc.persisted
	done = make(chan struct{})
	svc.persisted = done

	return prev, done
}

func (svc *service) persist(ctx context.Context, model fl.GlobalModel, records []fl.ContributionRecord, nodes []fl.Node) {
	if err := svc.repos.Models.Save(ctx, model); err != nil {
		svc.logger.WarnContext(ctx, "failed to persist global model",
			slog.Uint64("round", model.Round),
			slog.Any("error", err),
		)
	}
	if err := svc.repos.Contributions.Save(ctx, records); err != nil {
		svc.logger.WarnContext(ctx, "failed to persist contribution records",
			slog.Uint64("round", model.Round),
			slog.Any("error", err),
		)
	}
	for _, n := range nodes {
		if err := svc.repos.Nodes.Save(ctx, n); err != nil {
			svc.logger.WarnContext(ctx, "failed to persist node",
				slog.String("node_id", n.ID),
				slog.Any("error", err),
			)
		}
	}
}

func (svc *service) loadNodes(ctx context.Context) ([]fl.Node, error) {
	var (
		nodes  []fl.Node
		offset uint64
	)
	for {
		page, total, err := svc.repos.Nodes.List(ctx, offset, defLimit)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, page...)
		offset += uint64(len(page))
		if len(page) == 0 || offset >= total {
			return nodes, nil
		}
	}
}

// loadModels returns the latest committed model and the one with the
// highest accuracy, both nil when nothing was committed.
func (svc *service) loadModels(ctx context.Context) (*fl.GlobalModel, *fl.GlobalModel, error) {
	latest, err := svc.repos.Models.Latest(ctx)
	switch {
	case errors.Is(err, storage.ErrRoundNotFound):
		return nil, nil, nil
	case err != nil:
		return nil, nil, err
	}

	var (
		best   *fl.GlobalModel
		offset uint64
	)
	for {
		page, total, err := svc.repos.Models.List(ctx, offset, defLimit)
		if err != nil {
			return nil, nil, err
		}
		for i := range page {
			if best == nil || page[i].Accuracy > best.Accuracy {
				best = &page[i]
			}
		}
		offset += uint64(len(page))
		if len(page) == 0 || offset >= total {
			break
		}
	}

	return &latest, best, nil
}

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(context.Context, []fl.ContributionRecord) {}
