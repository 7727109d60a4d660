package contract

import (
	"context"
	"time"

	"github.com/huangsam/tenure/schema"
	"github.com/stretchr/testify/mock"
)

// MockExecutor is a mock implementation of Executor.
type MockExecutor struct {
	mock.Mock
}

var _ Executor = &MockExecutor{} // Compile-time check

// Backend implements Executor.
func (m *MockExecutor) Backend() schema.DatabaseBackend {
	args := m.Called()
	return args.Get(0).(schema.DatabaseBackend)
}

// Execute implements Executor.
func (m *MockExecutor) Execute(ctx context.Context, stmt schema.Statement) ([]schema.Row, error) {
	args := m.Called(ctx, stmt)
	rows, _ := args.Get(0).([]schema.Row)
	return rows, args.Error(1)
}

// MockOrgResolver is a mock implementation of OrgResolver.
type MockOrgResolver struct {
	mock.Mock
}

var _ OrgResolver = &MockOrgResolver{} // Compile-time check

// ResolveOrganizations implements OrgResolver.
func (m *MockOrgResolver) ResolveOrganizations(ctx context.Context, names []string) (map[string]int64, error) {
	args := m.Called(ctx, names)
	ids, _ := args.Get(0).(map[string]int64)
	return ids, args.Error(1)
}

// MockOutputWriter is a mock implementation of OutputWriter.
type MockOutputWriter struct {
	mock.Mock
}

var _ OutputWriter = &MockOutputWriter{} // Compile-time check

// WriteDurations implements OutputWriter.
func (m *MockOutputWriter) WriteDurations(doc schema.DurationDocument, cfg *Config, duration time.Duration) error {
	args := m.Called(doc, cfg, duration)
	return args.Error(0)
}

// WriteSeries implements OutputWriter.
func (m *MockOutputWriter) WriteSeries(doc schema.SeriesDocument, cfg *Config, duration time.Duration) error {
	args := m.Called(doc, cfg, duration)
	return args.Error(0)
}
