package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/absmach/fedcoord/pkg/fl"
	"github.com/absmach/fedcoord/pkg/storage/badger"
	"github.com/absmach/fedcoord/pkg/storage/postgres"
	"github.com/absmach/fedcoord/pkg/storage/sqlite"
)

type Config struct {
	Type string `env:"COORDINATOR_STORAGE_TYPE" envDefault:"memory"`

	SQLitePath string `env:"COORDINATOR_SQLITE_PATH" envDefault:"./fedcoord.db"`

	BadgerPath string `env:"COORDINATOR_BADGER_PATH" envDefault:"./data/badger"`

	PostgresHost    string `env:"COORDINATOR_POSTGRES_HOST"    envDefault:"localhost"`
	PostgresPort    string `env:"COORDINATOR_POSTGRES_PORT"    envDefault:"5432"`
	PostgresUser    string `env:"COORDINATOR_POSTGRES_USER"    envDefault:"fedcoord"`
	PostgresPass    string `env:"COORDINATOR_POSTGRES_PASS"    envDefault:"fedcoord"`
	PostgresDB      string `env:"COORDINATOR_POSTGRES_DB"      envDefault:"fedcoord"`
	PostgresSSLMode string `env:"COORDINATOR_POSTGRES_SSLMODE" envDefault:"disable"`
}

type Repositories struct {
	Nodes         NodeRepository
	Models        ModelRepository
	Contributions ContributionRepository
	// Closer closes the underlying persistent storage connection.
	// It is nil for the in-memory backend.
	Closer io.Closer
}

func NewRepositories(cfg Config) (*Repositories, error) {
	switch cfg.Type {
	case "postgres":
		return newPostgresRepositories(cfg)
	case "sqlite":
		return newSQLiteRepositories(cfg)
	case "badger":
		return newBadgerRepositories(cfg)
	case "memory", "":
		return newMemoryRepositories(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

func newPostgresRepositories(cfg Config) (*Repositories, error) {
	db, err := postgres.NewDatabase(
		cfg.PostgresHost,
		cfg.PostgresPort,
		cfg.PostgresUser,
		cfg.PostgresPass,
		cfg.PostgresDB,
		cfg.PostgresSSLMode,
	)
	if err != nil {
		return nil, err
	}

	repos := postgres.NewRepositories(db)

	return &Repositories{
		Nodes:         &nodeAdapter{repo: repos.Nodes},
		Models:        &modelAdapter{repo: repos.Models},
		Contributions: repos.Contributions,
		Closer:        db,
	}, nil
}

func newSQLiteRepositories(cfg Config) (*Repositories, error) {
	db, err := sqlite.NewDatabase(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}

	repos := sqlite.NewRepositories(db)

	return &Repositories{
		Nodes:         &nodeAdapter{repo: repos.Nodes},
		Models:        &modelAdapter{repo: repos.Models},
		Contributions: repos.Contributions,
		Closer:        db,
	}, nil
}

func newBadgerRepositories(cfg Config) (*Repositories, error) {
	db, err := badger.NewDatabase(cfg.BadgerPath)
	if err != nil {
		return nil, err
	}

	repos := badger.NewRepositories(db)

	return &Repositories{
		Nodes:         &nodeAdapter{repo: repos.Nodes},
		Models:        &modelAdapter{repo: repos.Models},
		Contributions: repos.Contributions,
		Closer:        db,
	}, nil
}

func newMemoryRepositories() *Repositories {
	return &Repositories{
		Nodes:         newMemoryNodeRepository(NewInMemoryStorage()),
		Models:        newMemoryModelRepository(NewInMemoryStorage()),
		Contributions: newMemoryContributionRepository(NewInMemoryStorage()),
	}
}

// nodeAdapter and modelAdapter translate backend specific not-found errors
// into the ones declared by this package.
type nodeAdapter struct {
	repo NodeRepository
}

func (a *nodeAdapter) Save(ctx context.Context, n fl.Node) error {
	return a.repo.Save(ctx, n)
}

func (a *nodeAdapter) Get(ctx context.Context, id string) (fl.Node, error) {
	n, err := a.repo.Get(ctx, id)
	if errors.Is(err, sqlite.ErrNodeNotFound) ||
		errors.Is(err, badger.ErrNodeNotFound) ||
		errors.Is(err, postgres.ErrNodeNotFound) {
		return fl.Node{}, ErrNodeNotFound
	}

	return n, err
}

func (a *nodeAdapter) List(ctx context.Context, offset, limit uint64) ([]fl.Node, uint64, error) {
	return a.repo.List(ctx, offset, limit)
}

type modelAdapter struct {
	repo ModelRepository
}

func (a *modelAdapter) Save(ctx context.Context, m fl.GlobalModel) error {
	return a.repo.Save(ctx, m)
}

func (a *modelAdapter) Get(ctx context.Context, round uint64) (fl.GlobalModel, error) {
	return translateRound(a.repo.Get(ctx, round))
}

func (a *modelAdapter) Latest(ctx context.Context) (fl.GlobalModel, error) {
	return translateRound(a.repo.Latest(ctx))
}

func (a *modelAdapter) List(ctx context.Context, offset, limit uint64) ([]fl.GlobalModel, uint64, error) {
	return a.repo.List(ctx, offset, limit)
}

func translateRound(m fl.GlobalModel, err error) (fl.GlobalModel, error) {
	if errors.Is(err, sqlite.ErrRoundNotFound) ||
		errors.Is(err, badger.ErrRoundNotFound) ||
		errors.Is(err, postgres.ErrRoundNotFound) {
		return fl.GlobalModel{}, ErrRoundNotFound
	}

	return m, err
}
