package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/absmach/fedcoord/pkg/fl"
)

const modelPrefix = "model:"

func modelKey(round uint64) string {
	return fmt.Sprintf("%s%020d", modelPrefix, round)
}

type modelRepo struct {
	db *Database
}

func NewModelRepository(db *Database) ModelRepository {
	return &modelRepo{db: db}
}

func (r *modelRepo) Save(ctx context.Context, m fl.GlobalModel) error {
	val, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	if err := r.db.setAll(map[string][]byte{modelKey(m.Round): val}); err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *modelRepo) Get(ctx context.Context, round uint64) (fl.GlobalModel, error) {
	val, err := r.db.get([]byte(modelKey(round)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fl.GlobalModel{}, ErrRoundNotFound
		}

		return fl.GlobalModel{}, err
	}

	return decodeModel(val)
}

func (r *modelRepo) Latest(ctx context.Context) (fl.GlobalModel, error) {
	val, err := r.db.last([]byte(modelPrefix))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fl.GlobalModel{}, ErrRoundNotFound
		}

		return fl.GlobalModel{}, err
	}

	return decodeModel(val)
}

func (r *modelRepo) List(ctx context.Context, offset, limit uint64) ([]fl.GlobalModel, uint64, error) {
	prefix := []byte(modelPrefix)
	total, err := r.db.countWithPrefix(prefix)
	if err != nil {
		return nil, 0, err
	}
	values, err := r.db.listWithPrefix(prefix, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	models := make([]fl.GlobalModel, len(values))
	for i, val := range values {
		if models[i], err = decodeModel(val); err != nil {
			return nil, 0, err
		}
	}

	return models, total, nil
}

func decodeModel(val []byte) (fl.GlobalModel, error) {
	var m fl.GlobalModel
	if err := json.Unmarshal(val, &m); err != nil {
		return fl.GlobalModel{}, fmt.Errorf("unmarshal error: %w", err)
	}

	return m, nil
}
