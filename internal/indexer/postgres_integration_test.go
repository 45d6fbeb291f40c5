package indexer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metricsindexer/apps/indexer/internal/indexer"
	"metricsindexer/apps/indexer/internal/ratelimit"
	"metricsindexer/apps/indexer/internal/testutils"
	"metricsindexer/apps/indexer/internal/usecase"
)

func TestPostgresIndexer_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	suite := testutils.NewIntegrationSuite(t)
	suite.Setup()
	defer suite.Teardown()

	ctx := context.Background()
	reg := testRegistry()
	x := indexer.NewStaticStringsIndexer(indexer.NewPostgresIndexer(suite.DB, reg, ratelimit.NewWritesLimiter(reg)))

	results, err := x.BulkRecord(ctx, usecase.ReleaseHealth, indexer.OrgStrings{
		1: {"a", "b", "environment"},
		2: {"a"},
	})
	require.NoError(t, err)
	mapped := results.Mapped()
	require.Len(t, mapped[1], 3)
	require.Len(t, mapped[2], 1)
	assert.NotEqual(t, mapped[1]["a"], mapped[2]["a"])
	assert.GreaterOrEqual(t, mapped[1]["a"], int64(10000))

	first, _ := results.Get(1, "a")
	assert.Equal(t, indexer.FetchFirstSeen, first.FetchType)

	again, err := x.BulkRecord(ctx, usecase.ReleaseHealth, indexer.OrgStrings{1: {"a"}})
	require.NoError(t, err)
	read, _ := again.Get(1, "a")
	assert.Equal(t, indexer.FetchDBRead, read.FetchType)
	assert.Equal(t, first.ID, read.ID)

	s, ok, err := x.ReverseResolve(ctx, usecase.ReleaseHealth, first.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", s)

	// Performance writes to its own table
	_, ok, err = x.Resolve(ctx, usecase.Performance, 1, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}
