package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/permitflow/internal/service"
)

// MockWriter is a mock implementation of ReportWriter for testing.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, summary *service.ReportSummary) error
	LastSummary    *service.ReportSummary
	WriteCalls     []WriteCall
	WriteCallCount int
	mu             sync.Mutex
}

var _ service.ReportWriter = (*MockWriter)(nil)

// WriteCall represents a single call to Write.
type WriteCall struct {
	Error   error
	Summary *service.ReportSummary
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{
		WriteCalls: make([]WriteCall, 0),
	}
}

// Write implements the ReportWriter interface.
func (m *MockWriter) Write(ctx context.Context, summary *service.ReportSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++
	m.LastSummary = summary

	var err error
	if m.WriteFunc != nil {
		err = m.WriteFunc(ctx, summary)
	}

	m.WriteCalls = append(m.WriteCalls, WriteCall{
		Summary: summary,
		Error:   err,
	})

	return err
}

// Reset clears all recorded calls.
func (m *MockWriter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount = 0
	m.WriteCalls = make([]WriteCall, 0)
	m.LastSummary = nil
}

// GetWriteCalls returns a copy of all write calls.
func (m *MockWriter) GetWriteCalls() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]WriteCall, len(m.WriteCalls))
	copy(calls, m.WriteCalls)
	return calls
}
