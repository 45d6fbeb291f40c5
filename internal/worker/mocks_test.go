package worker_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"metricsindexer/apps/indexer/internal/indexer"
	"metricsindexer/apps/indexer/internal/usecase"
)

// Mocks

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(topic string, body []byte) error {
	args := m.Called(topic, body)
	return args.Error(0)
}

type MockIndexer struct{ mock.Mock }

func (m *MockIndexer) BulkRecord(ctx context.Context, k usecase.Key, orgStrings indexer.OrgStrings) (*indexer.KeyResults, error) {
	args := m.Called(ctx, k, orgStrings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*indexer.KeyResults), args.Error(1)
}
