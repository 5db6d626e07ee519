package testutil

import (
	"time"

	"github.com/absmach/fedcoord/pkg/fl"
)

func TestNode(id string) fl.Node {
	now := time.Now().UTC().Truncate(time.Millisecond)

	return fl.Node{
		ID:                     id,
		Weights:                fl.Vector{0.1, 0.2, 0.3},
		DataSize:               100,
		Accuracy:               0.5,
		LastSubmittedRound:     0,
		CumulativeContribution: 0,
		Active:                 true,
		RegisteredAt:           now,
		UpdatedAt:              now,
	}
}

func TestModel(round uint64) fl.GlobalModel {
	return fl.GlobalModel{
		Weights:       fl.Vector{1, 2, 3},
		Round:         round,
		Accuracy:      0.8,
		Participants:  2,
		TotalDataSize: 400,
		Algorithm:     fl.AlgorithmFedAvg,
		CreatedAt:     time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestContributions(round uint64, nodeIDs ...string) []fl.ContributionRecord {
	records := make([]fl.ContributionRecord, len(nodeIDs))
	for i, id := range nodeIDs {
		records[i] = fl.ContributionRecord{NodeID: id, Round: round, Score: 0.1 * float64(i+1)}
	}

	return records
}
