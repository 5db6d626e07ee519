package badger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/absmach/fedcoord/pkg/fl"
)

const (
	roundContributionPrefix = "contribution:round:"
	nodeContributionPrefix  = "contribution:node:"
)

func roundContributionKey(round uint64, nodeID string) string {
	return fmt.Sprintf("%s%020d:%s", roundContributionPrefix, round, nodeID)
}

// nodeContributionKey indexes the same record by node so listing a node's
// history does not scan every round.
func nodeContributionKey(nodeID string, round uint64) string {
	return fmt.Sprintf("%s%s:%020d", nodeContributionPrefix, nodeID, round)
}

type contributionRepo struct {
	db *Database
}

func NewContributionRepository(db *Database) ContributionRepository {
	return &contributionRepo{db: db}
}

func (r *contributionRepo) Save(ctx context.Context, records []fl.ContributionRecord) error {
	if len(records) == 0 {
		return nil
	}
	kvs := make(map[string][]byte, 2*len(records))
	for _, rec := range records {
		val, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal error: %w", err)
		}
		kvs[roundContributionKey(rec.Round, rec.NodeID)] = val
		kvs[nodeContributionKey(rec.NodeID, rec.Round)] = val
	}
	if err := r.db.setAll(kvs); err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *contributionRepo) ListByNode(ctx context.Context, nodeID string, offset, limit uint64) ([]fl.ContributionRecord, uint64, error) {
	prefix := []byte(nodeContributionPrefix + nodeID + ":")
	total, err := r.db.countWithPrefix(prefix)
	if err != nil {
		return nil, 0, err
	}
	values, err := r.db.listWithPrefix(prefix, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	records, err := decodeRecords(values)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *contributionRepo) ListByRound(ctx context.Context, round uint64) ([]fl.ContributionRecord, error) {
	prefix := []byte(fmt.Sprintf("%s%020d:", roundContributionPrefix, round))
	total, err := r.db.countWithPrefix(prefix)
	if err != nil {
		return nil, err
	}
	values, err := r.db.listWithPrefix(prefix, 0, total)
	if err != nil {
		return nil, err
	}

	return decodeRecords(values)
}

func decodeRecords(values [][]byte) ([]fl.ContributionRecord, error) {
	records := make([]fl.ContributionRecord, len(values))
	for i, val := range values {
		if err := json.Unmarshal(val, &records[i]); err != nil {
			return nil, fmt.Errorf("unmarshal error: %w", err)
		}
	}

	return records, nil
}
