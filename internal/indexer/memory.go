package indexer

import (
	"context"
	"sync"

	"metricsindexer/apps/indexer/internal/usecase"
)

const firstStoredID int64 = 10000

// SimpleIndexer keeps ids in memory. Ids are shared across use cases.
// It is meant for tests and local development.
type SimpleIndexer struct {
	mu      sync.Mutex
	next    int64
	strings map[int64]map[string]int64
	reverse map[int64]string
}

func NewSimpleIndexer() *SimpleIndexer {
	return &SimpleIndexer{
		next:    firstStoredID,
		strings: make(map[int64]map[string]int64),
		reverse: make(map[int64]string),
	}
}

func (x *SimpleIndexer) BulkRecord(ctx context.Context, k usecase.Key, orgStrings OrgStrings) (*KeyResults, error) {
	results := NewKeyResults()
	keys := orgStrings.normalize()

	x.mu.Lock()
	defer x.mu.Unlock()

	for _, org := range keys.orgs() {
		for _, s := range keys[org] {
			if id, ok := sharedID(s); ok {
				results.Add(KeyResult{OrgID: org, String: s, ID: id, FetchType: FetchHardcoded})
				continue
			}
			id, created := x.record(org, s)
			fetch := FetchDBRead
			if created {
				fetch = FetchFirstSeen
			}
			results.Add(KeyResult{OrgID: org, String: s, ID: id, FetchType: fetch})
		}
	}
	return results, nil
}

func (x *SimpleIndexer) Record(ctx context.Context, k usecase.Key, orgID int64, s string) (int64, bool, error) {
	if id, ok := sharedID(s); ok {
		return id, true, nil
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	id, _ := x.record(orgID, s)
	return id, true, nil
}

func (x *SimpleIndexer) Resolve(ctx context.Context, k usecase.Key, orgID int64, s string) (int64, bool, error) {
	if id, ok := sharedID(s); ok {
		return id, true, nil
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	id, ok := x.strings[orgID][s]
	return id, ok, nil
}

func (x *SimpleIndexer) ReverseResolve(ctx context.Context, k usecase.Key, id int64) (string, bool, error) {
	if s, ok := sharedString(id); ok {
		return s, true, nil
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	s, ok := x.reverse[id]
	return s, ok, nil
}

// record must be called with mu held.
func (x *SimpleIndexer) record(org int64, s string) (id int64, created bool) {
	byString, ok := x.strings[org]
	if !ok {
		byString = make(map[string]int64)
		x.strings[org] = byString
	}
	if id, ok := byString[s]; ok {
		return id, false
	}
	id = x.next
	x.next++
	byString[s] = id
	x.reverse[id] = s
	return id, true
}
