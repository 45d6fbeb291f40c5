package usecase

import (
	"errors"
	"fmt"
)

// ErrInvalidUseCase is returned by Parse for unrecognized input.
var ErrInvalidUseCase = errors.New("invalid use case")

// Key identifies a metrics ingestion pipeline variant.
type Key string

const (
	ReleaseHealth Key = "release-health"
	Performance   Key = "performance"
)

func (k Key) String() string {
	return string(k)
}

// Parse maps the accepted spellings of a use case to its Key.
// Matching is case-sensitive.
func Parse(s string) (Key, error) {
	switch s {
	case "performance":
		return Performance, nil
	case "release-health", "releaseHealth":
		return ReleaseHealth, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidUseCase, s)
	}
}

// DbKey names the indexer storage backend a use case writes to.
type DbKey string

const (
	StringIndexer     DbKey = "StringIndexer"
	PerfStringIndexer DbKey = "PerfStringIndexer"
)

func (d DbKey) String() string {
	return string(d)
}
