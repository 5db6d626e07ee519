package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/absmach/fedcoord/pkg/fl"
)

const nodePrefix = "node:"

type nodeRepo struct {
	db *Database
}

func NewNodeRepository(db *Database) NodeRepository {
	return &nodeRepo{db: db}
}

func (r *nodeRepo) Save(ctx context.Context, n fl.Node) error {
	val, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	return r.db.setAll(map[string][]byte{nodePrefix + n.ID: val})
}

func (r *nodeRepo) Get(ctx context.Context, id string) (fl.Node, error) {
	val, err := r.db.get([]byte(nodePrefix + id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fl.Node{}, ErrNodeNotFound
		}

		return fl.Node{}, err
	}
	var n fl.Node
	if err := json.Unmarshal(val, &n); err != nil {
		return fl.Node{}, fmt.Errorf("unmarshal error: %w", err)
	}

	return n, nil
}

func (r *nodeRepo) List(ctx context.Context, offset, limit uint64) ([]fl.Node, uint64, error) {
	prefix := []byte(nodePrefix)
	total, err := r.db.countWithPrefix(prefix)
	if err != nil {
		return nil, 0, err
	}
	values, err := r.db.listWithPrefix(prefix, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	nodes := make([]fl.Node, len(values))
	for i, val := range values {
		if err := json.Unmarshal(val, &nodes[i]); err != nil {
			return nil, 0, fmt.Errorf("unmarshal error: %w", err)
		}
	}

	return nodes, total, nil
}
