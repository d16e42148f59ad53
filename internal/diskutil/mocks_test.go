package diskutil

import (
	"context"
	"sync"
)

// mockRunner is a scripted Runner that records every invocation.
type mockRunner struct {
	mu sync.Mutex

	// Configurable behavior
	runFunc func(inv Invocation) (string, error)

	// Call tracking
	calls []Invocation
}

// newMockRunner creates a runner where every utility succeeds silently.
func newMockRunner() *mockRunner {
	return &mockRunner{
		runFunc: func(inv Invocation) (string, error) {
			return "", nil
		},
	}
}

func (m *mockRunner) Run(ctx context.Context, inv Invocation) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, inv)
	m.mu.Unlock()

	out, err := m.runFunc(inv)
	if inv.Tee != nil && out != "" {
		_, _ = inv.Tee.Write([]byte(out))
	}
	return out, err
}

// commands returns the recorded invocations as command lines.
func (m *mockRunner) commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmds := make([]string, len(m.calls))
	for i, c := range m.calls {
		cmds[i] = c.String()
	}
	return cmds
}
