package importer

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockExecutor struct {
	mock.Mock
}

func (m *mockExecutor) Name() string { return "mock" }

func (m *mockExecutor) Execute(ctx context.Context, batch Batch) ([]RowOutcome, error) {
	args := m.Called(ctx, batch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]RowOutcome), args.Error(1)
}
