package channels

import (
	"context"
	"fmt"
	"sync"

	"github.com/parleybot/parley/pkg/logger"
)

// Manager owns the configured transports and starts and stops them as a
// group.
type Manager struct {
	transports map[string]Transport
	mu         sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{transports: make(map[string]Transport)}
}

func (m *Manager) Add(t Transport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transports[t.Name()] = t
}

// Messenger returns the outbound side of a named transport.
func (m *Manager) Messenger(name string) (Messenger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.transports[name]
	if !ok {
		return nil, fmt.Errorf("unknown transport %q", name)
	}
	return t, nil
}

func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.transports) == 0 {
		logger.WarnC("channels", "No transports configured")
		return nil
	}

	for name, t := range m.transports {
		if err := t.Start(ctx); err != nil {
			return fmt.Errorf("start transport %s: %w", name, err)
		}
		logger.InfoCF("channels", "Transport started", map[string]any{
			"transport": name,
		})
	}
	return nil
}

func (m *Manager) StopAll(ctx context.Context) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, t := range m.transports {
		if !t.IsRunning() {
			continue
		}
		if err := t.Stop(ctx); err != nil {
			logger.WarnCF("channels", "Transport stop failed", map[string]any{
				"transport": name,
				"error":     err.Error(),
			})
		}
	}
}
