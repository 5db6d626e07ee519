package sqlite_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/absmach/fedcoord/pkg/fl"
	"github.com/absmach/fedcoord/pkg/storage/sqlite"
	"github.com/absmach/fedcoord/pkg/storage/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDB    *sqlite.Database
	invalidID = "invalid-id-that-does-not-exist"
)

func TestMain(m *testing.M) {
	tmpDir := os.TempDir()
	dbPath := filepath.Join(tmpDir, "test_"+uuid.NewString()+".db")

	var err error
	testDB, err = sqlite.NewDatabase(dbPath)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	testDB.Close()
	os.Remove(dbPath)

	os.Exit(code)
}

func TestMigrateIsIdempotent(t *testing.T) {
	assert.Nil(t, testDB.Migrate())
}

func TestNodeRepository_SaveGet(t *testing.T) {
	repo := sqlite.NewNodeRepository(testDB)
	ctx := context.Background()

	node := testutil.TestNode(uuid.NewString())
	require.Nil(t, repo.Save(ctx, node))

	updated := node
	updated.Weights = fl.Vector{4, 5, 6}
	updated.Accuracy = 0.9
	updated.LastSubmittedRound = 7
	updated.Active = false

	cases := []struct {
		desc   string
		save   *fl.Node
		nodeID string
		want   fl.Node
		err    error
	}{
		{
			desc:   "get existing node",
			nodeID: node.ID,
			want:   node,
			err:    nil,
		},
		{
			desc:   "save upserts existing node",
			save:   &updated,
			nodeID: node.ID,
			want:   updated,
			err:    nil,
		},
		{
			desc:   "get non-existing node",
			nodeID: invalidID,
			err:    sqlite.ErrNodeNotFound,
		},
		{
			desc:   "get with empty ID",
			nodeID: "",
			err:    sqlite.ErrNodeNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			if tc.save != nil {
				require.Nil(t, repo.Save(ctx, *tc.save))
			}
			got, err := repo.Get(ctx, tc.nodeID)
			assert.Equal(t, tc.err, err, fmt.Sprintf("%s: expected error %v, got %v", tc.desc, tc.err, err))
			if err == nil {
				assert.Equal(t, tc.want.ID, got.ID)
				assert.Equal(t, tc.want.Weights, got.Weights)
				assert.Equal(t, tc.want.Accuracy, got.Accuracy)
				assert.Equal(t, tc.want.LastSubmittedRound, got.LastSubmittedRound)
				assert.Equal(t, tc.want.Active, got.Active)
				assert.True(t, tc.want.RegisteredAt.Equal(got.RegisteredAt))
			}
		})
	}
}

func TestNodeRepository_List(t *testing.T) {
	repo := sqlite.NewNodeRepository(testDB)
	ctx := context.Background()

	testDB.ExecContext(ctx, "DELETE FROM nodes")

	for i := range 5 {
		require.Nil(t, repo.Save(ctx, testutil.TestNode(fmt.Sprintf("node-%d", i))))
	}

	cases := []struct {
		desc   string
		offset uint64
		limit  uint64
		count  int
		first  string
	}{
		{desc: "list all", offset: 0, limit: 10, count: 5, first: "node-0"},
		{desc: "list first page", offset: 0, limit: 2, count: 2, first: "node-0"},
		{desc: "list second page", offset: 2, limit: 2, count: 2, first: "node-2"},
		{desc: "list past end", offset: 10, limit: 2, count: 0},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			nodes, total, err := repo.List(ctx, tc.offset, tc.limit)
			require.Nil(t, err)
			assert.Equal(t, uint64(5), total)
			assert.Len(t, nodes, tc.count)
			if tc.count > 0 {
				assert.Equal(t, tc.first, nodes[0].ID)
			}
		})
	}
}

func TestModelRepository(t *testing.T) {
	repo := sqlite.NewModelRepository(testDB)
	ctx := context.Background()

	testDB.ExecContext(ctx, "DELETE FROM models")

	_, err := repo.Latest(ctx)
	assert.Equal(t, sqlite.ErrRoundNotFound, err)

	for _, round := range []uint64{1, 2, 10} {
		require.Nil(t, repo.Save(ctx, testutil.TestModel(round)))
	}

	cases := []struct {
		desc  string
		round uint64
		err   error
	}{
		{desc: "get first round", round: 1, err: nil},
		{desc: "get round ten", round: 10, err: nil},
		{desc: "get missing round", round: 5, err: sqlite.ErrRoundNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			m, err := repo.Get(ctx, tc.round)
			assert.Equal(t, tc.err, err, fmt.Sprintf("%s: expected error %v, got %v", tc.desc, tc.err, err))
			if err == nil {
				assert.Equal(t, tc.round, m.Round)
				assert.Equal(t, fl.Vector{1, 2, 3}, m.Weights)
				assert.Equal(t, fl.AlgorithmFedAvg, m.Algorithm)
			}
		})
	}

	latest, err := repo.Latest(ctx)
	require.Nil(t, err)
	assert.Equal(t, uint64(10), latest.Round)

	models, total, err := repo.List(ctx, 1, 10)
	require.Nil(t, err)
	assert.Equal(t, uint64(3), total)
	require.Len(t, models, 2)
	assert.Equal(t, uint64(2), models[0].Round)
}

func TestContributionRepository(t *testing.T) {
	repo := sqlite.NewContributionRepository(testDB)
	ctx := context.Background()

	testDB.ExecContext(ctx, "DELETE FROM contributions")

	require.Nil(t, repo.Save(ctx, nil))
	require.Nil(t, repo.Save(ctx, testutil.TestContributions(1, "a", "b")))
	require.Nil(t, repo.Save(ctx, testutil.TestContributions(2, "a")))

	cases := []struct {
		desc   string
		nodeID string
		offset uint64
		limit  uint64
		total  uint64
		rounds []uint64
	}{
		{desc: "node with two rounds", nodeID: "a", offset: 0, limit: 10, total: 2, rounds: []uint64{1, 2}},
		{desc: "node with offset", nodeID: "a", offset: 1, limit: 10, total: 2, rounds: []uint64{2}},
		{desc: "node with one round", nodeID: "b", offset: 0, limit: 10, total: 1, rounds: []uint64{1}},
		{desc: "unknown node", nodeID: invalidID, offset: 0, limit: 10, total: 0, rounds: nil},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			records, total, err := repo.ListByNode(ctx, tc.nodeID, tc.offset, tc.limit)
			require.Nil(t, err)
			assert.Equal(t, tc.total, total)
			var rounds []uint64
			for _, r := range records {
				rounds = append(rounds, r.Round)
			}
			assert.Equal(t, tc.rounds, rounds)
		})
	}

	byRound, err := repo.ListByRound(ctx, 1)
	require.Nil(t, err)
	require.Len(t, byRound, 2)
	assert.Equal(t, "a", byRound[0].NodeID)
}
