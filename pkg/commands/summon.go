package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/parleybot/parley/pkg/bot"
	"github.com/parleybot/parley/pkg/bus"
	"github.com/parleybot/parley/pkg/logger"
	"github.com/parleybot/parley/pkg/store"
)

const (
	summonEmoji = "👍"

	// Expired records are pruned once a night.
	summonSweepCron = "0 0 * * *"
)

// summonBoard manages gathering announcements: an announcement message
// collects thumbs-up reactions, and when the time comes everyone who voted
// gets pinged.
type summonBoard struct {
	doc   *store.Document
	state summonState
}

type summonState struct {
	Version int            `json:"version"`
	Summons []summonRecord `json:"summons"`
}

type summonRecord struct {
	ID        string `json:"id"`
	DueUnix   int64  `json:"due_unix"`
	Transport string `json:"transport"`
	GuildID   string `json:"guild_id"`
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id"`
	AuthorID  string `json:"author_id"`
	Topic     string `json:"topic"`
}

func loadSummonBoard(path string) (*summonBoard, error) {
	sb := &summonBoard{
		doc:   store.New(path, 1, nil),
		state: summonState{Version: 1},
	}
	if err := sb.doc.Load(&sb.state); err != nil {
		return nil, err
	}
	return sb, nil
}

func (sb *summonBoard) command(rb *reminderBook) bot.Command {
	return bot.Command{
		Name: "sammeln",
		Help: "ruft zusammen, z.B. /sammeln heute um 20:30 Rocket League",
		Fn: func(ctx context.Context, b *bot.Bot, msg bus.InboundMessage, args string) error {
			if msg.IsDM {
				b.Reply(ctx, msg, "Sammeln geht nur in einem Serverkanal.")
				return nil
			}

			due, topic, ok := rb.findTime(args)
			if !ok {
				b.Reply(ctx, msg, "Wann soll es losgehen? Versuch es wie bei /sammeln heute um 20:30 Rocket League.")
				return nil
			}
			if topic == "" {
				topic = "Es geht los"
			}

			m, err := b.Messenger(msg.Channel)
			if err != nil {
				return err
			}

			text := fmt.Sprintf("<@%s> ruft zusammen: %s um %s Uhr.\nReagiert mit %s wenn ihr dabei seid! (0 dabei)",
				msg.SenderID, topic, due.Format("15:04"), summonEmoji)
			ids, err := m.Send(ctx, msg.ChatID, text)
			if err != nil || len(ids) == 0 {
				return err
			}
			if err := m.React(ctx, msg.ChatID, ids[0], summonEmoji); err != nil {
				logger.WarnCF("commands", "Failed to seed summon reaction", map[string]any{
					"error": err.Error(),
				})
			}

			rec := summonRecord{
				ID:        uuid.NewString(),
				DueUnix:   due.Unix(),
				Transport: msg.Channel,
				GuildID:   msg.GuildID,
				ChatID:    msg.ChatID,
				MessageID: ids[0],
				AuthorID:  msg.SenderID,
				Topic:     topic,
			}
			sb.state.Summons = append(sb.state.Summons, rec)
			if err := sb.doc.Save(&sb.state); err != nil {
				return err
			}
			sb.queue(b, rec)
			return nil
		},
	}
}

// restore re-queues pending summons and starts the nightly sweep.
func (sb *summonBoard) restore(b *bot.Bot) error {
	for _, rec := range sb.state.Summons {
		sb.queue(b, rec)
	}
	return sb.scheduleSweep(b)
}

func (sb *summonBoard) queue(b *bot.Bot, rec summonRecord) {
	b.Scheduler().Queue("summon", time.Unix(rec.DueUnix, 0), func(ctx context.Context) error {
		if err := b.Do(ctx, func(ctx context.Context) error {
			sb.remove(rec.ID)
			return nil
		}); err != nil {
			return err
		}

		m, err := b.Messenger(rec.Transport)
		if err != nil {
			return err
		}
		count, _ := sb.tally(ctx, b, rec)
		_, err = m.Send(ctx, rec.ChatID,
			fmt.Sprintf("<@%s> Es ist soweit: %s! %d sind dabei.", rec.AuthorID, rec.Topic, count))
		return err
	})
}

// scheduleSweep drops records whose time has long passed, for example
// because the bot was offline when they fired. The sweep re-queues itself
// every midnight.
func (sb *summonBoard) scheduleSweep(b *bot.Bot) error {
	_, err := b.Scheduler().QueueCron("summon-sweep", summonSweepCron, func(ctx context.Context) error {
		if err := b.Do(ctx, func(ctx context.Context) error {
			sb.prune(time.Now().Add(-24 * time.Hour))
			return nil
		}); err != nil {
			return err
		}
		return sb.scheduleSweep(b)
	})
	return err
}

func (sb *summonBoard) prune(before time.Time) {
	kept := sb.state.Summons[:0]
	for _, rec := range sb.state.Summons {
		if time.Unix(rec.DueUnix, 0).After(before) {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(sb.state.Summons) {
		return
	}
	sb.state.Summons = kept
	if err := sb.doc.Save(&sb.state); err != nil {
		logger.ErrorCF("commands", "Failed to persist summon state", map[string]any{
			"error": err.Error(),
		})
	}
}

// handleReaction refreshes the participant count in the announcement text.
func (sb *summonBoard) handleReaction(ctx context.Context, b *bot.Bot, ev bus.ReactionEvent) (bool, error) {
	rec, ok := sb.find(ev.MessageID)
	if !ok || ev.Emoji != summonEmoji {
		return false, nil
	}

	count, err := sb.tally(ctx, b, rec)
	if err != nil {
		return true, err
	}

	m, err := b.Messenger(rec.Transport)
	if err != nil {
		return true, err
	}
	text := fmt.Sprintf("<@%s> ruft zusammen: %s um %s Uhr.\nReagiert mit %s wenn ihr dabei seid! (%d dabei)",
		rec.AuthorID, rec.Topic, time.Unix(rec.DueUnix, 0).Format("15:04"), summonEmoji, count)
	return true, m.Edit(ctx, rec.ChatID, rec.MessageID, text)
}

// tally counts thumbs-up votes, excluding the bot's own seed reaction.
func (sb *summonBoard) tally(ctx context.Context, b *bot.Bot, rec summonRecord) (int, error) {
	m, err := b.Messenger(rec.Transport)
	if err != nil {
		return 0, err
	}
	msg, err := m.Message(ctx, rec.ChatID, rec.MessageID)
	if err != nil {
		return 0, err
	}
	for _, r := range msg.Reactions {
		if r.Emoji == summonEmoji {
			if r.Count > 0 {
				return r.Count - 1, nil
			}
			return 0, nil
		}
	}
	return 0, nil
}

func (sb *summonBoard) find(messageID string) (summonRecord, bool) {
	for _, rec := range sb.state.Summons {
		if rec.MessageID == messageID {
			return rec, true
		}
	}
	return summonRecord{}, false
}

func (sb *summonBoard) remove(id string) {
	recs := sb.state.Summons
	for i, r := range recs {
		if r.ID == id {
			sb.state.Summons = append(recs[:i], recs[i+1:]...)
			break
		}
	}
	if err := sb.doc.Save(&sb.state); err != nil {
		logger.ErrorCF("commands", "Failed to persist summon state", map[string]any{
			"error": err.Error(),
		})
	}
}
