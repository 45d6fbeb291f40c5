package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metricsindexer/apps/indexer/internal/app"
	"metricsindexer/apps/indexer/internal/testutils"
)

func TestBootstrap_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	suite := testutils.NewIntegrationSuite(t)
	suite.Setup()
	defer suite.Teardown()

	cfg := suite.GetAppConfig()
	reg := app.BuildRegistry(cfg)

	deps, err := app.Bootstrap(context.Background(), cfg, reg)
	require.NoError(t, err)
	defer deps.Close()

	assert.NoError(t, deps.DB.Ping())
	assert.NoError(t, deps.NSQProducer.Ping())

	var count int
	err = deps.DB.QueryRow(`SELECT COUNT(*) FROM perf_string_indexer`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
