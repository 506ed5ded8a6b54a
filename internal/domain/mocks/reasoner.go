package mocks

import (
	"context"
	"sync"

	"github.com/ersonp/secmatch/internal/domain/ports"
)

// Reasoner is a mock implementation of ports.Reasoner. Responses maps
// a pair key ("id1|id2") to a canned oracle response; pairs without an
// entry get Response.
type Reasoner struct {
	Responses map[string]string
	Response  string
	Err       error

	mu    sync.Mutex
	calls int
}

// ReviewMatch returns the configured response or error.
func (m *Reasoner) ReviewMatch(ctx context.Context, req ports.ReviewRequest) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	key := req.Entity1.HarmonizedID + "|" + req.Entity2.HarmonizedID
	if resp, ok := m.Responses[key]; ok {
		return resp, nil
	}
	return m.Response, nil
}

// Calls returns how many times ReviewMatch was invoked.
func (m *Reasoner) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
