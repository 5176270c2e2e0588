package bus

import (
	"sync"
	"sync/atomic"
	"time"
)

// MessageBus carries inbound messages and reaction events from the chat
// transports to the bot's single consumer loop. Publishing never blocks a
// transport for longer than publishTimeout; overflow is counted and dropped.
type MessageBus struct {
	inbound   chan InboundMessage
	reactions chan ReactionEvent
	closed    bool
	dropped   droppedCounters
	mu        sync.RWMutex
}

type droppedCounters struct {
	inbound   atomic.Uint64
	reactions atomic.Uint64
}

const publishTimeout = 100 * time.Millisecond

func NewMessageBus() *MessageBus {
	return &MessageBus{
		inbound:   make(chan InboundMessage, 100),
		reactions: make(chan ReactionEvent, 100),
	}
}

func (mb *MessageBus) PublishInbound(msg InboundMessage) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return
	}

	select {
	case mb.inbound <- msg:
	default:
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case mb.inbound <- msg:
		case <-timer.C:
			mb.dropped.inbound.Add(1)
		}
	}
}

func (mb *MessageBus) PublishReaction(ev ReactionEvent) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return
	}

	select {
	case mb.reactions <- ev:
	default:
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case mb.reactions <- ev:
		case <-timer.C:
			mb.dropped.reactions.Add(1)
		}
	}
}

// Inbound exposes the inbound stream for use in a select loop.
// The channel is closed by Close.
func (mb *MessageBus) Inbound() <-chan InboundMessage {
	return mb.inbound
}

// Reactions exposes the reaction stream for use in a select loop.
func (mb *MessageBus) Reactions() <-chan ReactionEvent {
	return mb.reactions
}

func (mb *MessageBus) Close() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return
	}
	mb.closed = true
	close(mb.inbound)
	close(mb.reactions)
}

func (mb *MessageBus) DroppedInbound() uint64 {
	return mb.dropped.inbound.Load()
}

func (mb *MessageBus) DroppedReactions() uint64 {
	return mb.dropped.reactions.Load()
}
