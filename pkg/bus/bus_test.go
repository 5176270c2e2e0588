package bus

import "testing"

func TestMessageBus_PublishInboundDropsWhenBufferFull(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	for i := 0; i < cap(mb.inbound); i++ {
		mb.PublishInbound(InboundMessage{Channel: "test", SenderID: "u", ChatID: "c", Content: "msg"})
	}

	mb.PublishInbound(InboundMessage{Channel: "test", SenderID: "u", ChatID: "c", Content: "overflow"})
	if mb.DroppedInbound() != 1 {
		t.Fatalf("expected dropped inbound count 1, got %d", mb.DroppedInbound())
	}
}

func TestMessageBus_PublishReactionDropsWhenBufferFull(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	for i := 0; i < cap(mb.reactions); i++ {
		mb.PublishReaction(ReactionEvent{Channel: "test", ChatID: "c", MessageID: "m", Emoji: "x"})
	}

	mb.PublishReaction(ReactionEvent{Channel: "test", ChatID: "c", MessageID: "m", Emoji: "overflow"})
	if mb.DroppedReactions() != 1 {
		t.Fatalf("expected dropped reaction count 1, got %d", mb.DroppedReactions())
	}
}

func TestMessageBus_PublishAfterCloseIsIgnored(t *testing.T) {
	mb := NewMessageBus()
	mb.Close()

	mb.PublishInbound(InboundMessage{Channel: "test"})
	mb.PublishReaction(ReactionEvent{Channel: "test"})

	if _, ok := <-mb.Inbound(); ok {
		t.Fatalf("expected closed inbound channel")
	}
	if _, ok := <-mb.Reactions(); ok {
		t.Fatalf("expected closed reactions channel")
	}
}
