// Package indexer assigns integer ids to metric names, tag keys and tag values
// per organization, and resolves them back.
package indexer

import (
	"context"
	"maps"
	"slices"
	"unicode/utf8"

	"metricsindexer/apps/indexer/internal/usecase"
)

// FetchType records where the id of a string came from.
type FetchType string

const (
	FetchHardcoded   FetchType = "hardcoded"
	FetchDBRead      FetchType = "db_read"
	FetchFirstSeen   FetchType = "first_seen"
	FetchRateLimited FetchType = "rate_limited"
)

// MaxStringLength is the longest string, in characters, the storage columns
// accept.
const MaxStringLength = 200

// TooLong reports whether s cannot be stored.
func TooLong(s string) bool {
	return utf8.RuneCountInString(s) > MaxStringLength
}

type StringIndexer interface {
	BulkRecord(ctx context.Context, k usecase.Key, orgStrings OrgStrings) (*KeyResults, error)
	// Record returns ok=false when the string could not be indexed because
	// the organization exceeded its writes quota.
	Record(ctx context.Context, k usecase.Key, orgID int64, s string) (id int64, ok bool, err error)
	Resolve(ctx context.Context, k usecase.Key, orgID int64, s string) (id int64, ok bool, err error)
	ReverseResolve(ctx context.Context, k usecase.Key, id int64) (s string, ok bool, err error)
}

// OrgStrings maps organization ids to the strings to index for them.
type OrgStrings map[int64][]string

// Size is the number of distinct (org, string) pairs.
func (o OrgStrings) Size() int {
	n := 0
	for _, strs := range o.normalize() {
		n += len(strs)
	}
	return n
}

// normalize returns a copy with strings sorted and deduplicated and empty
// organizations removed.
func (o OrgStrings) normalize() OrgStrings {
	out := make(OrgStrings, len(o))
	for org, strs := range o {
		if len(strs) == 0 {
			continue
		}
		sorted := slices.Clone(strs)
		slices.Sort(sorted)
		out[org] = slices.Compact(sorted)
	}
	return out
}

// orgs returns the organization ids in ascending order.
func (o OrgStrings) orgs() []int64 {
	return slices.Sorted(maps.Keys(o))
}

type KeyResult struct {
	OrgID     int64
	String    string
	ID        int64
	FetchType FetchType
}

// KeyResults accumulates the outcome of a bulk record.
type KeyResults struct {
	results map[int64]map[string]KeyResult
}

func NewKeyResults() *KeyResults {
	return &KeyResults{results: make(map[int64]map[string]KeyResult)}
}

func (r *KeyResults) Add(res KeyResult) {
	byString, ok := r.results[res.OrgID]
	if !ok {
		byString = make(map[string]KeyResult)
		r.results[res.OrgID] = byString
	}
	byString[res.String] = res
}

func (r *KeyResults) Get(orgID int64, s string) (KeyResult, bool) {
	res, ok := r.results[orgID][s]
	return res, ok
}

func (r *KeyResults) Len() int {
	n := 0
	for _, byString := range r.results {
		n += len(byString)
	}
	return n
}

// Mapped returns org -> string -> id for every string that received an id.
func (r *KeyResults) Mapped() map[int64]map[string]int64 {
	out := make(map[int64]map[string]int64, len(r.results))
	for org, byString := range r.results {
		for s, res := range byString {
			if res.FetchType == FetchRateLimited {
				continue
			}
			if out[org] == nil {
				out[org] = make(map[string]int64)
			}
			out[org][s] = res.ID
		}
	}
	return out
}

// Unmapped returns the keys that have no result yet.
func (r *KeyResults) Unmapped(keys OrgStrings) OrgStrings {
	out := OrgStrings{}
	for org, strs := range keys.normalize() {
		for _, s := range strs {
			if _, ok := r.Get(org, s); !ok {
				out[org] = append(out[org], s)
			}
		}
	}
	return out
}

// Merge adds other's results into r and returns r.
func (r *KeyResults) Merge(other *KeyResults) *KeyResults {
	for _, byString := range other.results {
		for _, res := range byString {
			r.Add(res)
		}
	}
	return r
}
