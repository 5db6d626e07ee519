package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/absmach/fedcoord/pkg/fl"
)

type nodeRepo struct {
	db *Database
}

func NewNodeRepository(db *Database) NodeRepository {
	return &nodeRepo{db: db}
}

type dbNode struct {
	ID                     string    `db:"id"`
	Weights                []byte    `db:"weights"`
	DataSize               int64     `db:"data_size"`
	Accuracy               float64   `db:"accuracy"`
	LastSubmittedRound     uint64    `db:"last_submitted_round"`
	CumulativeContribution float64   `db:"cumulative_contribution"`
	Active                 bool      `db:"active"`
	RegisteredAt           time.Time `db:"registered_at"`
	UpdatedAt              time.Time `db:"updated_at"`
}

const nodeColumns = `id, weights, data_size, accuracy, last_submitted_round, cumulative_contribution, active, registered_at, updated_at`

func (r *nodeRepo) Save(ctx context.Context, n fl.Node) error {
	query := `INSERT INTO nodes (` + nodeColumns + `)
		VALUES (:id, :weights, :data_size, :accuracy, :last_submitted_round, :cumulative_contribution, :active, :registered_at, :updated_at)
		ON CONFLICT(id) DO UPDATE SET
			weights = excluded.weights,
			data_size = excluded.data_size,
			accuracy = excluded.accuracy,
			last_submitted_round = excluded.last_submitted_round,
			cumulative_contribution = excluded.cumulative_contribution,
			active = excluded.active,
			updated_at = excluded.updated_at`

	weights, err := json.Marshal(n.Weights)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	dbn := dbNode{
		ID:                     n.ID,
		Weights:                weights,
		DataSize:               n.DataSize,
		Accuracy:               n.Accuracy,
		LastSubmittedRound:     n.LastSubmittedRound,
		CumulativeContribution: n.CumulativeContribution,
		Active:                 n.Active,
		RegisteredAt:           n.RegisteredAt,
		UpdatedAt:              n.UpdatedAt,
	}
	if _, err := r.db.NamedExecContext(ctx, query, dbn); err != nil {
		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}

	return nil
}

func (r *nodeRepo) Get(ctx context.Context, id string) (fl.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE id = ?`

	var dbn dbNode
	if err := r.db.GetContext(ctx, &dbn, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fl.Node{}, ErrNodeNotFound
		}

		return fl.Node{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return toNode(dbn)
}

func (r *nodeRepo) List(ctx context.Context, offset, limit uint64) ([]fl.Node, uint64, error) {
	var total uint64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM nodes"); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	query := `SELECT ` + nodeColumns + ` FROM nodes ORDER BY id LIMIT ? OFFSET ?`

	var rows []dbNode
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	nodes := make([]fl.Node, 0, len(rows))
	for _, dbn := range rows {
		n, err := toNode(dbn)
		if err != nil {
			return nil, 0, err
		}
		nodes = append(nodes, n)
	}

	return nodes, total, nil
}

func toNode(dbn dbNode) (fl.Node, error) {
	n := fl.Node{
		ID:                     dbn.ID,
		DataSize:               dbn.DataSize,
		Accuracy:               dbn.Accuracy,
		LastSubmittedRound:     dbn.LastSubmittedRound,
		CumulativeContribution: dbn.CumulativeContribution,
		Active:                 dbn.Active,
		RegisteredAt:           dbn.RegisteredAt,
		UpdatedAt:              dbn.UpdatedAt,
	}
	if err := json.Unmarshal(dbn.Weights, &n.Weights); err != nil {
		return fl.Node{}, fmt.Errorf("%w: %w", ErrDBScan, err)
	}

	return n, nil
}
