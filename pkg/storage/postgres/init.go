package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/absmach/fedcoord/pkg/fl"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
)

var (
	ErrDBConnection  = errors.New("database connection error")
	ErrDBQuery       = errors.New("database query error")
	ErrDBScan        = errors.New("database scan error")
	ErrCreate        = errors.New("create error")
	ErrUpdate        = errors.New("update error")
	ErrNodeNotFound  = errors.New("node not found")
	ErrRoundNotFound = errors.New("round not found")
)

type NodeRepository interface {
	Save(ctx context.Context, n fl.Node) error
	Get(ctx context.Context, id string) (fl.Node, error)
	List(ctx context.Context, offset, limit uint64) ([]fl.Node, uint64, error)
}

type ModelRepository interface {
	Save(ctx context.Context, m fl.GlobalModel) error
	Get(ctx context.Context, round uint64) (fl.GlobalModel, error)
	Latest(ctx context.Context) (fl.GlobalModel, error)
	List(ctx context.Context, offset, limit uint64) ([]fl.GlobalModel, uint64, error)
}

type ContributionRepository interface {
	Save(ctx context.Context, records []fl.ContributionRecord) error
	ListByNode(ctx context.Context, nodeID string, offset, limit uint64) ([]fl.ContributionRecord, uint64, error)
	ListByRound(ctx context.Context, round uint64) ([]fl.ContributionRecord, error)
}

type Repositories struct {
	Nodes         NodeRepository
	Models        ModelRepository
	Contributions ContributionRepository
}

func NewRepositories(db *Database) *Repositories {
	return &Repositories{
		Nodes:         NewNodeRepository(db),
		Models:        NewModelRepository(db),
		Contributions: NewContributionRepository(db),
	}
}

type Database struct {
	*sqlx.DB
}

func NewDatabase(host, port, user, pass, name, sslMode string) (*Database, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s", host, port, user, pass, name, sslMode)
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	database := &Database{DB: db}

	if err := database.Migrate(); err != nil {
		db.Close()

		return nil, err
	}

	return database, nil
}

func (db *Database) Migrate() error {
	migrations := &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "1_create_tables",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS nodes (
						id VARCHAR(255) PRIMARY KEY,
						weights JSONB NOT NULL,
						data_size BIGINT NOT NULL DEFAULT 0,
						accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
						last_submitted_round BIGINT NOT NULL DEFAULT 0,
						cumulative_contribution DOUBLE PRECISION NOT NULL DEFAULT 0,
						active BOOLEAN NOT NULL DEFAULT FALSE,
						registered_at TIMESTAMPTZ NOT NULL,
						updated_at TIMESTAMPTZ NOT NULL
					)`,
					`CREATE TABLE IF NOT EXISTS models (
						round BIGINT PRIMARY KEY,
						weights JSONB NOT NULL,
						accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
						participants INTEGER NOT NULL DEFAULT 0,
						total_data_size BIGINT NOT NULL DEFAULT 0,
						algorithm TEXT,
						created_at TIMESTAMPTZ NOT NULL
					)`,
					`CREATE TABLE IF NOT EXISTS contributions (
						round BIGINT NOT NULL,
						node_id VARCHAR(255) NOT NULL,
						score DOUBLE PRECISION NOT NULL DEFAULT 0,
						PRIMARY KEY (round, node_id)
					)`,
					`CREATE INDEX IF NOT EXISTS idx_contributions_node_id ON contributions(node_id, round)`,
				},
				Down: []string{
					`DROP INDEX IF EXISTS idx_contributions_node_id`,
					`DROP TABLE IF EXISTS contributions`,
					`DROP TABLE IF EXISTS models`,
					`DROP TABLE IF EXISTS nodes`,
				},
			},
		},
	}

	if _, err := migrate.Exec(db.DB.DB, "postgres", migrations, migrate.Up); err != nil {
		return fmt.Errorf("database migration error: %w", err)
	}

	return nil
}
