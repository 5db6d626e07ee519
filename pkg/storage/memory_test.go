package storage_test

import (
	"context"
	"fmt"
	"testing"

	pkgerrors "github.com/absmach/fedcoord/pkg/errors"
	"github.com/absmach/fedcoord/pkg/fl"
	"github.com/absmach/fedcoord/pkg/storage"
	"github.com/absmach/fedcoord/pkg/storage/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStorage(t *testing.T) {
	s := storage.NewInMemoryStorage()
	ctx := context.Background()

	require.Nil(t, s.Create(ctx, "b", 2))
	require.Nil(t, s.Create(ctx, "a", 1))

	cases := []struct {
		desc string
		op   func() error
		err  error
	}{
		{desc: "create duplicate key", op: func() error { return s.Create(ctx, "a", 3) }, err: pkgerrors.ErrEntityExists},
		{desc: "create empty key", op: func() error { return s.Create(ctx, "", 3) }, err: pkgerrors.ErrEmptyKey},
		{desc: "update missing key", op: func() error { return s.Update(ctx, "z", 3) }, err: pkgerrors.ErrNotFound},
		{desc: "update existing key", op: func() error { return s.Update(ctx, "b", 20) }, err: nil},
		{desc: "upsert new key", op: func() error { return s.Upsert(ctx, "c", 30) }, err: nil},
		{desc: "delete empty key", op: func() error { return s.Delete(ctx, "") }, err: pkgerrors.ErrEmptyKey},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			err := tc.op()
			assert.Equal(t, tc.err, err, fmt.Sprintf("%s: expected error %v, got %v", tc.desc, tc.err, err))
		})
	}

	values, total, err := s.List(ctx, 0, 10)
	require.Nil(t, err)
	assert.Equal(t, uint64(3), total)
	assert.Equal(t, []any{1, 20, 30}, values)

	values, total, err = s.List(ctx, 5, 10)
	require.Nil(t, err)
	assert.Equal(t, uint64(3), total)
	assert.Empty(t, values)
}

func TestMemoryRepositories(t *testing.T) {
	repos, err := storage.NewRepositories(storage.Config{Type: "memory"})
	require.Nil(t, err)
	assert.Nil(t, repos.Closer)
	ctx := context.Background()

	node := testutil.TestNode("node-1")
	require.Nil(t, repos.Nodes.Save(ctx, node))

	got, err := repos.Nodes.Get(ctx, node.ID)
	require.Nil(t, err)
	assert.Equal(t, node.Weights, got.Weights)

	got.Weights[0] = 42
	again, err := repos.Nodes.Get(ctx, node.ID)
	require.Nil(t, err)
	assert.Equal(t, 0.1, again.Weights[0], "stored weights must not alias returned ones")

	_, err = repos.Nodes.Get(ctx, "missing")
	assert.Equal(t, storage.ErrNodeNotFound, err)

	_, err = repos.Models.Latest(ctx)
	assert.Equal(t, storage.ErrRoundNotFound, err)

	for _, round := range []uint64{2, 1, 11} {
		require.Nil(t, repos.Models.Save(ctx, testutil.TestModel(round)))
	}
	latest, err := repos.Models.Latest(ctx)
	require.Nil(t, err)
	assert.Equal(t, uint64(11), latest.Round)

	_, err = repos.Models.Get(ctx, 5)
	assert.Equal(t, storage.ErrRoundNotFound, err)

	require.Nil(t, repos.Contributions.Save(ctx, testutil.TestContributions(1, "a", "b")))
	require.Nil(t, repos.Contributions.Save(ctx, testutil.TestContributions(2, "a")))

	records, total, err := repos.Contributions.ListByNode(ctx, "a", 0, 10)
	require.Nil(t, err)
	assert.Equal(t, uint64(2), total)
	assert.Equal(t, []fl.ContributionRecord{
		{NodeID: "a", Round: 1, Score: 0.1},
		{NodeID: "a", Round: 2, Score: 0.1},
	}, records)

	records, total, err = repos.Contributions.ListByNode(ctx, "a", 1, 10)
	require.Nil(t, err)
	assert.Equal(t, uint64(2), total)
	assert.Len(t, records, 1)

	byRound, err := repos.Contributions.ListByRound(ctx, 1)
	require.Nil(t, err)
	assert.Len(t, byRound, 2)
}

func TestNewRepositoriesUnsupported(t *testing.T) {
	_, err := storage.NewRepositories(storage.Config{Type: "postgres"})
	assert.NotNil(t, err)
}
