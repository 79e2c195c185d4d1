package mocks

import (
	"context"
	"sync"

	"github.com/mayor-schedule-api/internal/notify"
)

// SendCall records one delivery attempt made through the mock sender.
type SendCall struct {
	Title  string
	Body   string
	Tokens []string
}

// MockSender is a recording implementation of notify.Sender. By default
// every token is delivered; set Err or ResultFunc to simulate failures.
type MockSender struct {
	mu         sync.Mutex
	Calls      []SendCall
	Err        error
	ResultFunc func(tokens []string) *notify.SendReport
}

func NewMockSender() *MockSender {
	return &MockSender{}
}

func (m *MockSender) Send(ctx context.Context, title, body string, tokens []string) (*notify.SendReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(tokens) == 0 {
		return &notify.SendReport{}, nil
	}

	m.Calls = append(m.Calls, SendCall{Title: title, Body: body, Tokens: append([]string(nil), tokens...)})

	if m.Err != nil {
		return nil, m.Err
	}
	if m.ResultFunc != nil {
		return m.ResultFunc(tokens), nil
	}

	report := &notify.SendReport{Success: len(tokens)}
	for _, t := range tokens {
		report.Results = append(report.Results, notify.TokenResult{Token: t, Delivered: true})
	}
	return report, nil
}

// CallCount returns how many sends were attempted.
func (m *MockSender) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent send, or nil when none happened.
func (m *MockSender) LastCall() *SendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return nil
	}
	call := m.Calls[len(m.Calls)-1]
	return &call
}
