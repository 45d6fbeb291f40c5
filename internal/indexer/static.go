package indexer

import (
	"context"

	"metricsindexer/apps/indexer/internal/usecase"
)

// StaticStringsIndexer answers shared strings itself and passes everything
// else to the wrapped indexer.
type StaticStringsIndexer struct {
	next StringIndexer
}

func NewStaticStringsIndexer(next StringIndexer) *StaticStringsIndexer {
	return &StaticStringsIndexer{next: next}
}

func (x *StaticStringsIndexer) BulkRecord(ctx context.Context, k usecase.Key, orgStrings OrgStrings) (*KeyResults, error) {
	static := NewKeyResults()
	for org, strs := range orgStrings.normalize() {
		for _, s := range strs {
			if id, ok := sharedID(s); ok {
				static.Add(KeyResult{OrgID: org, String: s, ID: id, FetchType: FetchHardcoded})
			}
		}
	}

	left := static.Unmapped(orgStrings)
	if len(left) == 0 {
		return static, nil
	}

	results, err := x.next.BulkRecord(ctx, k, left)
	if err != nil {
		return nil, err
	}
	return static.Merge(results), nil
}

func (x *StaticStringsIndexer) Record(ctx context.Context, k usecase.Key, orgID int64, s string) (int64, bool, error) {
	if id, ok := sharedID(s); ok {
		return id, true, nil
	}
	return x.next.Record(ctx, k, orgID, s)
}

func (x *StaticStringsIndexer) Resolve(ctx context.Context, k usecase.Key, orgID int64, s string) (int64, bool, error) {
	if id, ok := sharedID(s); ok {
		return id, true, nil
	}
	return x.next.Resolve(ctx, k, orgID, s)
}

func (x *StaticStringsIndexer) ReverseResolve(ctx context.Context, k usecase.Key, id int64) (string, bool, error) {
	if s, ok := sharedString(id); ok {
		return s, true, nil
	}
	return x.next.ReverseResolve(ctx, k, id)
}
