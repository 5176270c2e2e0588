package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/parleybot/parley/pkg/bus"
	"github.com/parleybot/parley/pkg/channels"
	"github.com/parleybot/parley/pkg/logger"
)

// Reply answers the message's author in the channel the message came from,
// addressing them by mention in guild channels.
func (b *Bot) Reply(ctx context.Context, msg bus.InboundMessage, text string) {
	if !msg.IsDM {
		text = "<@" + msg.SenderID + "> " + text
	}
	b.ReplyNoMention(ctx, msg, text)
}

// ReplyNoMention answers without addressing the author. Guild replies are
// scheduled for deletion after the configured TTL unless keep-messages is
// on.
func (b *Bot) ReplyNoMention(ctx context.Context, msg bus.InboundMessage, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	m, err := b.Messenger(msg.Channel)
	if err != nil {
		logger.ErrorCF("bot", "No transport for reply", map[string]any{
			"transport": msg.Channel,
			"error":     err.Error(),
		})
		return
	}

	ids, err := m.Send(ctx, msg.ChatID, text)
	if err != nil {
		logger.ErrorCF("bot", "Failed to send reply", map[string]any{
			"transport": msg.Channel,
			"chat_id":   msg.ChatID,
			"error":     err.Error(),
		})
		return
	}

	if !msg.IsDM && !b.cfg.IsKeepMessages() {
		for _, id := range ids {
			b.ScheduleDeletion(msg.Channel, msg.ChatID, id, b.replyTTL())
		}
	}
}

// DM sends a direct message over the named transport.
func (b *Bot) DM(ctx context.Context, transport, userID, text string) error {
	m, err := b.Messenger(transport)
	if err != nil {
		return err
	}
	_, err = m.SendDM(ctx, userID, text)
	return err
}

// DeleteMessage removes a message, treating an already deleted one as
// success.
func (b *Bot) DeleteMessage(ctx context.Context, transport, chatID, messageID string) error {
	m, err := b.Messenger(transport)
	if err != nil {
		return err
	}
	if err := m.Delete(ctx, chatID, messageID); err != nil && !errors.Is(err, channels.ErrNotFound) {
		return err
	}
	return nil
}

func (b *Bot) replyTTL() time.Time {
	return time.Now().Add(time.Duration(b.cfg.TTL() * float64(time.Second)))
}
