package storage

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/absmach/fedcoord/pkg/errors"
	"github.com/absmach/fedcoord/pkg/fl"
)

const scanPageSize = 1024

func roundKey(round uint64) string {
	return fmt.Sprintf("%020d", round)
}

func contributionKey(round uint64, nodeID string) string {
	return roundKey(round) + ":" + nodeID
}

type memoryNodeRepo struct {
	storage Storage
}

func newMemoryNodeRepository(s Storage) NodeRepository {
	return &memoryNodeRepo{storage: s}
}

func (r *memoryNodeRepo) Save(ctx context.Context, n fl.Node) error {
	n.Weights = n.Weights.Clone()

	return r.storage.Upsert(ctx, n.ID, n)
}

func (r *memoryNodeRepo) Get(ctx context.Context, id string) (fl.Node, error) {
	data, err := r.storage.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return fl.Node{}, ErrNodeNotFound
		}

		return fl.Node{}, err
	}
	n, ok := data.(fl.Node)
	if !ok {
		return fl.Node{}, pkgerrors.ErrInvalidData
	}
	n.Weights = n.Weights.Clone()

	return n, nil
}

func (r *memoryNodeRepo) List(ctx context.Context, offset, limit uint64) ([]fl.Node, uint64, error) {
	data, total, err := r.storage.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	nodes := make([]fl.Node, len(data))
	for i, d := range data {
		n, ok := d.(fl.Node)
		if !ok {
			return nil, 0, pkgerrors.ErrInvalidData
		}
		n.Weights = n.Weights.Clone()
		nodes[i] = n
	}

	return nodes, total, nil
}

type memoryModelRepo struct {
	storage Storage
}

func newMemoryModelRepository(s Storage) ModelRepository {
	return &memoryModelRepo{storage: s}
}

func (r *memoryModelRepo) Save(ctx context.Context, m fl.GlobalModel) error {
	return r.storage.Upsert(ctx, roundKey(m.Round), m.Clone())
}

func (r *memoryModelRepo) Get(ctx context.Context, round uint64) (fl.GlobalModel, error) {
	data, err := r.storage.Get(ctx, roundKey(round))
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return fl.GlobalModel{}, ErrRoundNotFound
		}

		return fl.GlobalModel{}, err
	}
	m, ok := data.(fl.GlobalModel)
	if !ok {
		return fl.GlobalModel{}, pkgerrors.ErrInvalidData
	}

	return m.Clone(), nil
}

func (r *memoryModelRepo) Latest(ctx context.Context) (fl.GlobalModel, error) {
	_, total, err := r.storage.List(ctx, 0, 0)
	if err != nil {
		return fl.GlobalModel{}, err
	}
	if total == 0 {
		return fl.GlobalModel{}, ErrRoundNotFound
	}
	models, _, err := r.List(ctx, total-1, 1)
	if err != nil {
		return fl.GlobalModel{}, err
	}
	if len(models) == 0 {
		return fl.GlobalModel{}, ErrRoundNotFound
	}

	return models[0], nil
}

func (r *memoryModelRepo) List(ctx context.Context, offset, limit uint64) ([]fl.GlobalModel, uint64, error) {
	data, total, err := r.storage.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	models := make([]fl.GlobalModel, len(data))
	for i, d := range data {
		m, ok := d.(fl.GlobalModel)
		if !ok {
			return nil, 0, pkgerrors.ErrInvalidData
		}
		models[i] = m.Clone()
	}

	return models, total, nil
}

type memoryContributionRepo struct {
	storage Storage
}

func newMemoryContributionRepository(s Storage) ContributionRepository {
	return &memoryContributionRepo{storage: s}
}

func (r *memoryContributionRepo) Save(ctx context.Context, records []fl.ContributionRecord) error {
	for _, rec := range records {
		if err := r.storage.Upsert(ctx, contributionKey(rec.Round, rec.NodeID), rec); err != nil {
			return fmt.Errorf("%w: %w", ErrCreate, err)
		}
	}

	return nil
}

func (r *memoryContributionRepo) ListByNode(ctx context.Context, nodeID string, offset, limit uint64) ([]fl.ContributionRecord, uint64, error) {
	var (
		total    uint64
		filtered []fl.ContributionRecord
	)

	err := r.scan(ctx, func(rec fl.ContributionRecord) {
		if rec.NodeID != nodeID {
			return
		}
		if total >= offset && uint64(len(filtered)) < limit {
			filtered = append(filtered, rec)
		}
		total++
	})
	if err != nil {
		return nil, 0, err
	}

	return filtered, total, nil
}

func (r *memoryContributionRepo) ListByRound(ctx context.Context, round uint64) ([]fl.ContributionRecord, error) {
	var records []fl.ContributionRecord
	err := r.scan(ctx, func(rec fl.ContributionRecord) {
		if rec.Round == round {
			records = append(records, rec)
		}
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *memoryContributionRepo) scan(ctx context.Context, fn func(fl.ContributionRecord)) error {
	var offset uint64
	for {
		data, total, err := r.storage.List(ctx, offset, scanPageSize)
		if err != nil {
			return err
		}
		for _, d := range data {
			rec, ok := d.(fl.ContributionRecord)
			if !ok {
				return pkgerrors.ErrInvalidData
			}
			fn(rec)
		}
		offset += uint64(len(data))
		if len(data) == 0 || offset >= total {
			return nil
		}
	}
}
