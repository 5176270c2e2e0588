// Package bot runs the event loop: every inbound message, reaction and
// scheduler callback is serialized through one goroutine, so dialog and
// session state needs no locking.
package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/parleybot/parley/pkg/bus"
	"github.com/parleybot/parley/pkg/channels"
	"github.com/parleybot/parley/pkg/config"
	"github.com/parleybot/parley/pkg/dialog"
	"github.com/parleybot/parley/pkg/feed"
	"github.com/parleybot/parley/pkg/logger"
	"github.com/parleybot/parley/pkg/nlu"
	"github.com/parleybot/parley/pkg/qna"
	"github.com/parleybot/parley/pkg/scheduler"
	"github.com/parleybot/parley/pkg/transcript"
)

// RegistryFactory builds one user's dialog registry with fresh dialog
// instances.
type RegistryFactory func(b *Bot) *dialog.Registry

// ReactionFunc inspects one reaction event. Handlers run in registration
// order; returning true consumes the event.
type ReactionFunc func(ctx context.Context, b *Bot, ev bus.ReactionEvent) (bool, error)

type session struct {
	registry *dialog.Registry
}

type call struct {
	fn   func(ctx context.Context) error
	done chan error
}

type Bot struct {
	cfg        *config.Config
	bus        *bus.MessageBus
	transports *channels.Manager
	sched      *scheduler.Scheduler
	recognizer nlu.Recognizer
	answers    *qna.Library
	feeds      *feed.Fetcher
	transcript *transcript.Store

	sessions  map[string]*session
	factory   RegistryFactory
	userCmds  []Command
	sysCmds   []Command
	reactions []ReactionFunc
	deletions *deletionLog

	calls  chan call
	stopCh chan struct{}
}

func New(cfg *config.Config, mb *bus.MessageBus, transports *channels.Manager,
	sched *scheduler.Scheduler, recognizer nlu.Recognizer, answers *qna.Library,
	feeds *feed.Fetcher, ts *transcript.Store) *Bot {

	return &Bot{
		cfg:        cfg,
		bus:        mb,
		transports: transports,
		sched:      sched,
		recognizer: recognizer,
		answers:    answers,
		feeds:      feeds,
		transcript: ts,
		sessions:   make(map[string]*session),
		calls:      make(chan call, 16),
		stopCh:     make(chan struct{}),
	}
}

func (b *Bot) Config() *config.Config { return b.cfg }

func (b *Bot) Scheduler() *scheduler.Scheduler { return b.sched }

func (b *Bot) Answers() *qna.Library { return b.answers }

func (b *Bot) Feeds() *feed.Fetcher { return b.feeds }

func (b *Bot) Transcript() *transcript.Store { return b.transcript }

func (b *Bot) Messenger(transport string) (channels.Messenger, error) {
	return b.transports.Messenger(transport)
}

// SetRegistryFactory installs the per-user dialog registry builder. Must be
// called before Run.
func (b *Bot) SetRegistryFactory(f RegistryFactory) {
	b.factory = f
}

// OnReaction registers a reaction handler.
func (b *Bot) OnReaction(fn ReactionFunc) {
	b.reactions = append(b.reactions, fn)
}

// RequestShutdown asks the event loop to exit after the current event.
// Safe to call from inside a dialog or command.
func (b *Bot) RequestShutdown() {
	select {
	case <-b.stopCh:
	default:
		close(b.stopCh)
	}
}

// Do runs fn inside the event loop and waits for it. Scheduler tasks use
// this to touch sessions and dialogs without racing the loop.
func (b *Bot) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	c := call{fn: fn, done: make(chan error, 1)}
	select {
	case b.calls <- c:
	case <-ctx.Done():
		return ctx.Err()
	case <-b.stopCh:
		return fmt.Errorf("bot is shutting down")
	}

	select {
	case err := <-c.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run consumes events until the context ends or a shutdown is requested.
func (b *Bot) Run(ctx context.Context) error {
	logger.InfoC("bot", "Event loop started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.stopCh:
			logger.InfoC("bot", "Shutdown requested")
			return nil
		case c := <-b.calls:
			c.done <- c.fn(ctx)
		case msg, ok := <-b.bus.Inbound():
			if !ok {
				return nil
			}
			b.handleMessage(ctx, msg)
		case ev, ok := <-b.bus.Reactions():
			if !ok {
				return nil
			}
			b.handleReaction(ctx, ev)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg bus.InboundMessage) {
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return
	}

	if strings.HasPrefix(content, SystemSymbol) {
		b.dispatchCommand(ctx, msg, content[len(SystemSymbol):], b.sysCmds, true)
		return
	}
	if strings.HasPrefix(content, UserSymbol) {
		b.dispatchCommand(ctx, msg, content[len(UserSymbol):], b.userCmds, false)
		return
	}

	sess := b.session(msg)
	if !b.shouldRespond(msg, sess) {
		return
	}

	if !msg.IsDM && !b.cfg.IsKeepMessages() {
		b.ScheduleDeletion(msg.Channel, msg.ChatID, msg.MessageID, b.replyTTL())
	}

	intents, entities, cleaned, err := b.recognizer.Recognize(ctx, msg.CleanContent)
	if err != nil {
		// Without a verdict the turn routes like an unclassified utterance.
		logger.WarnCF("bot", "Recognizer unavailable", map[string]any{
			"error": err.Error(),
		})
	}

	if b.cfg.IsDebug() && len(intents) > 0 {
		b.ReplyNoMention(ctx, msg, formatRanking(intents))
	}

	turn := &dialog.Turn{Msg: msg, Intents: intents, Entities: entities, Cleaned: cleaned}
	if err := sess.registry.Handle(ctx, turn); err != nil {
		logger.ErrorCF("bot", "Dialog turn failed", map[string]any{
			"user":  msg.SenderID,
			"error": err.Error(),
		})
		b.Reply(ctx, msg, "Da ist etwas schiefgelaufen.")
	}
}

// shouldRespond gates free-text handling. Direct messages always count; in
// guilds the bot must be addressed (or respond-all enabled) inside an
// activated channel. A suspended dialog overrides the gate so an answer mid
// dialog is never ignored.
func (b *Bot) shouldRespond(msg bus.InboundMessage, sess *session) bool {
	if sess.registry.HasSuspended() {
		return true
	}
	if msg.IsDM {
		return true
	}
	if !msg.MentionsBot && !b.cfg.IsRespondAll() {
		return false
	}
	return b.cfg.IsChannel(msg.ChatID)
}

func (b *Bot) handleReaction(ctx context.Context, ev bus.ReactionEvent) {
	for _, fn := range b.reactions {
		consumed, err := fn(ctx, b, ev)
		if err != nil {
			logger.WarnCF("bot", "Reaction handler failed", map[string]any{
				"message_id": ev.MessageID,
				"error":      err.Error(),
			})
		}
		if consumed {
			return
		}
	}
}

func (b *Bot) session(msg bus.InboundMessage) *session {
	key := msg.Channel + ":" + msg.SenderID
	if s, ok := b.sessions[key]; ok {
		return s
	}

	s := &session{registry: b.factory(b)}
	b.sessions[key] = s
	logger.DebugCF("bot", "Session created", map[string]any{
		"user":      msg.SenderID,
		"transport": msg.Channel,
	})
	return s
}

func formatRanking(intents []nlu.Intent) string {
	var sb strings.Builder
	sb.WriteString("```\n")
	for i, it := range intents {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&sb, "%-24s %.3f\n", it.Name, it.Score)
	}
	sb.WriteString("```")
	return sb.String()
}
