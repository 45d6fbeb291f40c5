package indexer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"metricsindexer/apps/indexer/internal/usecase"
)

var ErrUnknownBackend = errors.New("unknown indexer storage backend")

var tableByDbKey = map[usecase.DbKey]string{
	usecase.StringIndexer:     "string_indexer",
	usecase.PerfStringIndexer: "perf_string_indexer",
}

// ConfigSource resolves the ingest configuration of a use case.
type ConfigSource interface {
	Get(k usecase.Key) (usecase.IngestConfiguration, error)
}

// WritesLimiter decides which new strings an organization may write. Check
// must not consume quota; Commit is called once the accepted strings are
// stored.
type WritesLimiter interface {
	Check(k usecase.Key, orgID int64, strs []string) (accepted, dropped []string, err error)
	Commit(k usecase.Key, orgID int64, n int) error
}

// PostgresIndexer stores ids in the table that backs the use case's storage
// backend. Shared strings are not handled here; wrap it in a
// StaticStringsIndexer.
type PostgresIndexer struct {
	db      *sql.DB
	configs ConfigSource
	limiter WritesLimiter
}

// NewPostgresIndexer creates an indexer. A nil limiter accepts every write.
func NewPostgresIndexer(db *sql.DB, configs ConfigSource, limiter WritesLimiter) *PostgresIndexer {
	return &PostgresIndexer{db: db, configs: configs, limiter: limiter}
}

func (x *PostgresIndexer) table(k usecase.Key) (string, error) {
	table, _, err := x.backend(k)
	return table, err
}

// backend returns the table and the internal metrics tag of a use case.
func (x *PostgresIndexer) backend(k usecase.Key) (string, string, error) {
	cfg, err := x.configs.Get(k)
	if err != nil {
		return "", "", err
	}
	table, ok := tableByDbKey[cfg.DbModel]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.DbModel)
	}
	return table, cfg.InternalMetricsTag, nil
}

// BulkRecord reads existing ids, then creates rows for the strings the writes
// limiter accepts. Rejected strings are reported with FetchRateLimited. Quota
// is only consumed after the insert succeeds.
func (x *PostgresIndexer) BulkRecord(ctx context.Context, k usecase.Key, orgStrings OrgStrings) (*KeyResults, error) {
	table, tag, err := x.backend(k)
	if err != nil {
		return nil, err
	}

	keys := orgStrings.normalize()
	if len(keys) == 0 {
		return NewKeyResults(), nil
	}
	lookupsPerBatch.WithLabelValues(tag).Observe(float64(keys.Size()))

	results, err := x.fetch(ctx, table, keys, FetchDBRead)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}

	missing := results.Unmapped(keys)
	postgresLookups.WithLabelValues(tag, "true").Add(float64(results.Len()))
	postgresLookups.WithLabelValues(tag, "false").Add(float64(missing.Size()))
	if len(missing) == 0 {
		return results, nil
	}

	toWrite := OrgStrings{}
	for _, org := range missing.orgs() {
		accepted, dropped := missing[org], []string(nil)
		if x.limiter != nil {
			accepted, dropped, err = x.limiter.Check(k, org, missing[org])
			if err != nil {
				return nil, err
			}
		}
		rateLimitedWrites.WithLabelValues(tag).Add(float64(len(dropped)))
		for _, s := range dropped {
			results.Add(KeyResult{OrgID: org, String: s, FetchType: FetchRateLimited})
		}
		if len(accepted) > 0 {
			toWrite[org] = accepted
		}
	}
	if len(toWrite) == 0 {
		return results, nil
	}

	start := time.Now()
	if err := x.insert(ctx, table, toWrite); err != nil {
		return nil, fmt.Errorf("write %s: %w", table, err)
	}

	if x.limiter != nil {
		for _, org := range toWrite.orgs() {
			if err := x.limiter.Commit(k, org, len(toWrite[org])); err != nil {
				return nil, err
			}
		}
	}

	// Rows created concurrently by another writer are read back as well.
	written, err := x.fetch(ctx, table, toWrite, FetchFirstSeen)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	bulkCreateDuration.WithLabelValues(tag).Observe(time.Since(start).Seconds())
	return results.Merge(written), nil
}

func (x *PostgresIndexer) Record(ctx context.Context, k usecase.Key, orgID int64, s string) (int64, bool, error) {
	results, err := x.BulkRecord(ctx, k, OrgStrings{orgID: {s}})
	if err != nil {
		return 0, false, err
	}
	res, ok := results.Get(orgID, s)
	if !ok || res.FetchType == FetchRateLimited {
		return 0, false, nil
	}
	return res.ID, true, nil
}

func (x *PostgresIndexer) Resolve(ctx context.Context, k usecase.Key, orgID int64, s string) (int64, bool, error) {
	table, err := x.table(k)
	if err != nil {
		return 0, false, err
	}

	var id int64
	query := fmt.Sprintf(`SELECT id FROM %s WHERE organization_id = $1 AND string = $2`, table)
	err = x.db.QueryRowContext(ctx, query, orgID, s).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (x *PostgresIndexer) ReverseResolve(ctx context.Context, k usecase.Key, id int64) (string, bool, error) {
	table, err := x.table(k)
	if err != nil {
		return "", false, err
	}

	var s string
	query := fmt.Sprintf(`SELECT string FROM %s WHERE id = $1`, table)
	err = x.db.QueryRowContext(ctx, query, id).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

// pairs renders "($1, $2), ($3, $4)" for keys in a stable order.
func pairs(keys OrgStrings) (string, []any) {
	var (
		tuples []string
		args   []any
	)
	for _, org := range keys.orgs() {
		for _, s := range keys[org] {
			n := len(args)
			tuples = append(tuples, fmt.Sprintf("($%d, $%d)", n+1, n+2))
			args = append(args, org, s)
		}
	}
	return strings.Join(tuples, ", "), args
}

func (x *PostgresIndexer) fetch(ctx context.Context, table string, keys OrgStrings, fetch FetchType) (*KeyResults, error) {
	in, args := pairs(keys)
	query := fmt.Sprintf(`SELECT id, organization_id, string FROM %s WHERE (organization_id, string) IN (%s)`, table, in)

	rows, err := x.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := NewKeyResults()
	for rows.Next() {
		var res KeyResult
		if err := rows.Scan(&res.ID, &res.OrgID, &res.String); err != nil {
			return nil, err
		}
		res.FetchType = fetch
		results.Add(res)
	}
	return results, rows.Err()
}

func (x *PostgresIndexer) insert(ctx context.Context, table string, keys OrgStrings) error {
	values, args := pairs(keys)
	query := fmt.Sprintf(`INSERT INTO %s (organization_id, string) VALUES %s ON CONFLICT (organization_id, string) DO NOTHING`, table, values)
	_, err := x.db.ExecContext(ctx, query, args...)
	return err
}
