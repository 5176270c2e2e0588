package dialogs

import (
	"context"
	"fmt"
	"strings"

	"github.com/parleybot/parley/pkg/bot"
	"github.com/parleybot/parley/pkg/dialog"
)

// Shutdown ends the bot process after a short farewell.
type Shutdown struct {
	*dialog.Machine
	bot *bot.Bot
}

func NewShutdown(b *bot.Bot) *Shutdown {
	d := &Shutdown{
		Machine: dialog.NewMachine(IDShutdown, "respond"),
		bot:     b,
	}
	d.Handle("respond", d.respond)
	return d
}

func (d *Shutdown) respond(ctx context.Context, t *dialog.Turn) (dialog.Directive, error) {
	if !d.bot.Config().IsAdmin(t.Msg.SenderID) {
		d.bot.Reply(ctx, t.Msg, "Dazu fehlen dir die Rechte.")
		return dialog.Finish(), nil
	}

	d.bot.Reply(ctx, t.Msg, dialog.Enhance("Bis bald, #USER!", t.Msg))
	d.bot.RequestShutdown()
	return dialog.Finish(), nil
}

// Cleanup purges the bot's own messages from the current channel after an
// explicit confirmation.
type Cleanup struct {
	*dialog.Machine
	bot    *bot.Bot
	chatID string
}

const cleanupBatch = 100

func NewCleanup(b *bot.Bot) *Cleanup {
	d := &Cleanup{
		Machine: dialog.NewMachine(IDCleanup, "start"),
		bot:     b,
	}
	d.Handle("start", d.start)
	d.Handle("confirm", d.confirm)
	d.OnReset(func() { d.chatID = "" })
	return d
}

func (d *Cleanup) start(ctx context.Context, t *dialog.Turn) (dialog.Directive, error) {
	if !d.bot.Config().IsAdmin(t.Msg.SenderID) {
		d.bot.Reply(ctx, t.Msg, "Dazu fehlen dir die Rechte.")
		return dialog.Finish(), nil
	}
	if t.Msg.IsDM {
		d.bot.Reply(ctx, t.Msg, "Aufräumen geht nur in einem Serverkanal.")
		return dialog.Finish(), nil
	}

	d.chatID = t.Msg.ChatID
	d.bot.Reply(ctx, t.Msg, dialog.Enhance("Soll ich wirklich alle meine Nachrichten in #CHANNEL löschen? (ja/nein)", t.Msg))
	return dialog.Await("confirm"), nil
}

func (d *Cleanup) confirm(ctx context.Context, t *dialog.Turn) (dialog.Directive, error) {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(t.Cleaned)), "ja") {
		d.bot.Reply(ctx, t.Msg, "Gut, alles bleibt wie es ist.")
		return dialog.Finish(), nil
	}

	deleted, err := d.purge(ctx, t.Msg.Channel)
	if err != nil {
		return dialog.Directive{}, err
	}
	d.bot.Reply(ctx, t.Msg, fmt.Sprintf("Erledigt, %d Nachrichten gelöscht.", deleted))
	return dialog.Finish(), nil
}

func (d *Cleanup) purge(ctx context.Context, transport string) (int, error) {
	m, err := d.bot.Messenger(transport)
	if err != nil {
		return 0, err
	}
	self, err := m.Self(ctx)
	if err != nil {
		return 0, err
	}

	history, err := m.History(ctx, d.chatID, cleanupBatch, "")
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, msg := range history {
		if msg.AuthorID != self.ID {
			continue
		}
		if err := d.bot.DeleteMessage(ctx, transport, d.chatID, msg.ID); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}
