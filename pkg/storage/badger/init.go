package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/absmach/fedcoord/pkg/fl"
	"github.com/dgraph-io/badger/v4"
)

var (
	ErrDBConnection  = errors.New("badger database connection error")
	ErrDBQuery       = errors.New("database query error")
	ErrCreate        = errors.New("create error")
	ErrUpdate        = errors.New("update error")
	ErrNodeNotFound  = errors.New("node not found")
	ErrRoundNotFound = errors.New("round not found")
	ErrNotFound      = errors.New("not found")
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
	db *badger.DB
}

func NewDatabase(path string) (*Database, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) get(key []byte) ([]byte, error) {
	var val []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)

		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return val, nil
}

// setAll writes every key/value pair in a single transaction.
func (d *Database) setAll(kvs map[string][]byte) error {
	err := d.db.Update(func(txn *badger.Txn) error {
		for k, v := range kvs {
			if err := txn.Set([]byte(k), v); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}

	return nil
}

func (d *Database) listWithPrefix(prefix []byte, offset, limit uint64) ([][]byte, error) {
	var items [][]byte
	err := d.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		skipped := uint64(0)
		count := uint64(0)

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if skipped < offset {
				skipped++

				continue
			}
			if count >= limit {
				break
			}

			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			items = append(items, val)
			count++
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return items, nil
}

// last returns the value of the greatest key under prefix.
func (d *Database) last(prefix []byte) ([]byte, error) {
	var val []byte
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, prefix...), 0xFF)
		it.Seek(seek)
		if !it.ValidForPrefix(prefix) {
			return ErrNotFound
		}
		var err error
		val, err = it.Item().ValueCopy(nil)

		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return val, nil
}

func (d *Database) countWithPrefix(prefix []byte) (uint64, error) {
	count := uint64(0)
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return count, nil
}
