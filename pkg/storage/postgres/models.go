package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/absmach/fedcoord/pkg/fl"
)

type modelRepo struct {
	db *Database
}

func NewModelRepository(db *Database) ModelRepository {
	return &modelRepo{db: db}
}

type dbModel struct {
	Round         int64     `db:"round"`
	Weights       []byte    `db:"weights"`
	Accuracy      float64   `db:"accuracy"`
	Participants  int       `db:"participants"`
	TotalDataSize int64     `db:"total_data_size"`
	Algorithm     *string   `db:"algorithm"`
	CreatedAt     time.Time `db:"created_at"`
}

const modelColumns = `round, weights, accuracy, participants, total_data_size, algorithm, created_at`

func (r *modelRepo) Save(ctx context.Context, m fl.GlobalModel) error {
	query := `INSERT INTO models (` + modelColumns + `)
		VALUES (:round, :weights, :accuracy, :participants, :total_data_size, :algorithm, :created_at)
		ON CONFLICT (round) DO UPDATE SET
			weights = EXCLUDED.weights,
			accuracy = EXCLUDED.accuracy,
			participants = EXCLUDED.participants,
			total_data_size = EXCLUDED.total_data_size,
			algorithm = EXCLUDED.algorithm,
			created_at = EXCLUDED.created_at`

	weights, err := jsonBytes(m.Weights)
	if err != nil {
		return err
	}

	dbm := dbModel{
		Round:         int64(m.Round),
		Weights:       weights,
		Accuracy:      m.Accuracy,
		Participants:  m.Participants,
		TotalDataSize: m.TotalDataSize,
		Algorithm:     nullString(m.Algorithm),
		CreatedAt:     m.CreatedAt,
	}
	if _, err := r.db.NamedExecContext(ctx, query, dbm); err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *modelRepo) Get(ctx context.Context, round uint64) (fl.GlobalModel, error) {
	return r.getOne(ctx, `SELECT `+modelColumns+` FROM models WHERE round = $1`, int64(round))
}

func (r *modelRepo) Latest(ctx context.Context) (fl.GlobalModel, error) {
	return r.getOne(ctx, `SELECT `+modelColumns+` FROM models ORDER BY round DESC LIMIT 1`)
}

func (r *modelRepo) List(ctx context.Context, offset, limit uint64) ([]fl.GlobalModel, uint64, error) {
	var total uint64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM models"); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	query := `SELECT ` + modelColumns + ` FROM models ORDER BY round LIMIT $1 OFFSET $2`

	var rows []dbModel
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	models := make([]fl.GlobalModel, 0, len(rows))
	for _, dbm := range rows {
		m, err := toModel(dbm)
		if err != nil {
			return nil, 0, err
		}
		models = append(models, m)
	}

	return models, total, nil
}

func (r *modelRepo) getOne(ctx context.Context, query string, args ...any) (fl.GlobalModel, error) {
	var dbm dbModel
	if err := r.db.GetContext(ctx, &dbm, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fl.GlobalModel{}, ErrRoundNotFound
		}

		return fl.GlobalModel{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return toModel(dbm)
}

func toModel(dbm dbModel) (fl.GlobalModel, error) {
	m := fl.GlobalModel{
		Round:         uint64(dbm.Round),
		Accuracy:      dbm.Accuracy,
		Participants:  dbm.Participants,
		TotalDataSize: dbm.TotalDataSize,
		CreatedAt:     dbm.CreatedAt,
	}
	if dbm.Algorithm != nil {
		m.Algorithm = *dbm.Algorithm
	}
	if err := jsonUnmarshal(dbm.Weights, &m.Weights); err != nil {
		return fl.GlobalModel{}, err
	}

	return m, nil
}
