package sqlite

import (
	"context"
	"fmt"

	"github.com/absmach/fedcoord/pkg/fl"
)

type contributionRepo struct {
	db *Database
}

func NewContributionRepository(db *Database) ContributionRepository {
	return &contributionRepo{db: db}
}

type dbContribution struct {
	Round  uint64  `db:"round"`
	NodeID string  `db:"node_id"`
	Score  float64 `db:"score"`
}

func (r *contributionRepo) Save(ctx context.Context, records []fl.ContributionRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := `INSERT OR REPLACE INTO contributions (round, node_id, score) VALUES (?, ?, ?)`
	for _, rec := range records {
		if _, err := tx.ExecContext(ctx, query, rec.Round, rec.NodeID, rec.Score); err != nil {
			return fmt.Errorf("%w: %w", ErrCreate, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *contributionRepo) ListByNode(ctx context.Context, nodeID string, offset, limit uint64) ([]fl.ContributionRecord, uint64, error) {
	var total uint64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM contributions WHERE node_id = ?", nodeID); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	query := `SELECT round, node_id, score FROM contributions WHERE node_id = ? ORDER BY round LIMIT ? OFFSET ?`

	var rows []dbContribution
	if err := r.db.SelectContext(ctx, &rows, query, nodeID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return toRecords(rows), total, nil
}

func (r *contributionRepo) ListByRound(ctx context.Context, round uint64) ([]fl.ContributionRecord, error) {
	query := `SELECT round, node_id, score FROM contributions WHERE round = ? ORDER BY node_id`

	var rows []dbContribution
	if err := r.db.SelectContext(ctx, &rows, query, round); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return toRecords(rows), nil
}

func toRecords(rows []dbContribution) []fl.ContributionRecord {
	records := make([]fl.ContributionRecord, len(rows))
	for i, row := range rows {
		records[i] = fl.ContributionRecord{NodeID: row.NodeID, Round: row.Round, Score: row.Score}
	}

	return records
}
