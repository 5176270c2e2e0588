package channels

import (
	"context"
	"strings"

	"github.com/parleybot/parley/pkg/bus"
)

// Transport is one chat surface the bot listens and talks on.
type Transport interface {
	Messenger
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning() bool
	IsAllowed(senderID, senderName string) bool
}

type BaseChannel struct {
	bus       *bus.MessageBus
	running   bool
	name      string
	allowList []string
}

func NewBaseChannel(name string, bus *bus.MessageBus, allowList []string) *BaseChannel {
	return &BaseChannel{
		bus:       bus,
		name:      name,
		allowList: allowList,
	}
}

func (c *BaseChannel) Name() string {
	return c.name
}

func (c *BaseChannel) IsRunning() bool {
	return c.running
}

// IsAllowed checks the sender against the allowlist, matching either the
// transport's user ID or the plain username. An empty list allows everyone.
func (c *BaseChannel) IsAllowed(senderID, senderName string) bool {
	if len(c.allowList) == 0 {
		return true
	}

	for _, allowed := range c.allowList {
		candidate := strings.TrimSpace(strings.TrimPrefix(allowed, "@"))
		if candidate == "" {
			continue
		}
		if candidate == senderID || (senderName != "" && candidate == senderName) {
			return true
		}
	}
	return false
}

func (c *BaseChannel) setRunning(running bool) {
	c.running = running
}
