package bot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/parleybot/parley/pkg/logger"
	"github.com/parleybot/parley/pkg/store"
)

// deletionLog is the durable queue of pending message deletions. A record
// is written before the deletion is queued and removed before it executes,
// so a crash can cause at most one extra deletion attempt, never a reply
// that lives forever.
type deletionLog struct {
	doc   *store.Document
	state deletionState
}

type deletionState struct {
	Version   int              `json:"version"`
	Deletions []deletionRecord `json:"deletions"`
}

type deletionRecord struct {
	ID        string `json:"id"`
	DueUnix   int64  `json:"due_unix"`
	Transport string `json:"transport"`
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id"`
}

// InitDeletions loads the deletion log and re-queues every pending record.
// Call after the scheduler exists and before the event loop starts.
func (b *Bot) InitDeletions(path string) error {
	b.deletions = &deletionLog{
		doc:   store.New(path, 1, nil),
		state: deletionState{Version: 1},
	}
	if err := b.deletions.doc.Load(&b.deletions.state); err != nil {
		return err
	}

	for _, rec := range b.deletions.state.Deletions {
		b.queueDeletion(rec)
	}
	if n := len(b.deletions.state.Deletions); n > 0 {
		logger.InfoCF("bot", "Restored pending deletions", map[string]any{
			"count": n,
		})
	}
	return nil
}

// ScheduleDeletion persists a deletion record and queues its execution.
// Must run inside the event loop.
func (b *Bot) ScheduleDeletion(transport, chatID, messageID string, due time.Time) {
	if b.deletions == nil {
		return
	}

	rec := deletionRecord{
		ID:        uuid.NewString(),
		DueUnix:   due.Unix(),
		Transport: transport,
		ChatID:    chatID,
		MessageID: messageID,
	}
	b.deletions.state.Deletions = append(b.deletions.state.Deletions, rec)
	if err := b.deletions.doc.Save(&b.deletions.state); err != nil {
		logger.ErrorCF("bot", "Failed to persist deletion record", map[string]any{
			"message_id": messageID,
			"error":      err.Error(),
		})
		return
	}

	b.queueDeletion(rec)
}

func (b *Bot) queueDeletion(rec deletionRecord) {
	b.sched.Queue("delete-message", time.Unix(rec.DueUnix, 0), func(ctx context.Context) error {
		if err := b.Do(ctx, func(ctx context.Context) error {
			b.removeDeletionRecord(rec.ID)
			return nil
		}); err != nil {
			return err
		}
		return b.DeleteMessage(ctx, rec.Transport, rec.ChatID, rec.MessageID)
	})
}

func (b *Bot) removeDeletionRecord(id string) {
	recs := b.deletions.state.Deletions
	for i, r := range recs {
		if r.ID == id {
			b.deletions.state.Deletions = append(recs[:i], recs[i+1:]...)
			break
		}
	}
	if err := b.deletions.doc.Save(&b.deletions.state); err != nil {
		logger.ErrorCF("bot", "Failed to persist deletion log", map[string]any{
			"error": err.Error(),
		})
	}
}
