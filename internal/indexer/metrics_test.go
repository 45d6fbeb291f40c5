package indexer

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metricsindexer/apps/indexer/internal/usecase"
)

type dropLimiter struct{ drop string }

func (l dropLimiter) Check(k usecase.Key, orgID int64, strs []string) ([]string, []string, error) {
	var accepted, dropped []string
	for _, s := range strs {
		if s == l.drop {
			dropped = append(dropped, s)
		} else {
			accepted = append(accepted, s)
		}
	}
	return accepted, dropped, nil
}

func (dropLimiter) Commit(k usecase.Key, orgID int64, n int) error { return nil }

func TestPostgresIndexer_Metrics(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	const tag = "metrics-test"
	r := usecase.NewRegistry()
	r.Register(usecase.IngestConfiguration{
		DbModel:            usecase.PerfStringIndexer,
		InputTopic:         "ingest-performance-metrics",
		OutputTopic:        "snuba-generic-metrics",
		UseCase:            usecase.Performance,
		InternalMetricsTag: tag,
	})
	x := NewPostgresIndexer(db, r, dropLimiter{drop: "c"})

	hits := testutil.ToFloat64(postgresLookups.WithLabelValues(tag, "true"))
	misses := testutil.ToFloat64(postgresLookups.WithLabelValues(tag, "false"))
	limited := testutil.ToFloat64(rateLimitedWrites.WithLabelValues(tag))
	batches := sampleCount(t, "metrics_indexer_lookups_per_batch", tag)
	creates := sampleCount(t, "metrics_indexer_bulk_create_duration_seconds", tag)

	cols := []string{"id", "organization_id", "string"}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, organization_id, string FROM perf_string_indexer")).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(10001), int64(1), "a"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO perf_string_indexer")).
		WithArgs(int64(1), "b").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, organization_id, string FROM perf_string_indexer")).
		WithArgs(int64(1), "b").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(10002), int64(1), "b"))

	_, err = x.BulkRecord(context.Background(), usecase.Performance, OrgStrings{1: {"a", "b", "c"}})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, hits+1, testutil.ToFloat64(postgresLookups.WithLabelValues(tag, "true")))
	assert.Equal(t, misses+2, testutil.ToFloat64(postgresLookups.WithLabelValues(tag, "false")))
	assert.Equal(t, limited+1, testutil.ToFloat64(rateLimitedWrites.WithLabelValues(tag)))
	assert.Equal(t, batches+1, sampleCount(t, "metrics_indexer_lookups_per_batch", tag))
	assert.Equal(t, creates+1, sampleCount(t, "metrics_indexer_bulk_create_duration_seconds", tag))
}

// sampleCount returns the observations of a histogram for one tag.
func sampleCount(t *testing.T, name, tag string) uint64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "internal_metrics_tag" && l.GetValue() == tag {
					return m.GetHistogram().GetSampleCount()
				}
			}
		}
	}
	return 0
}
