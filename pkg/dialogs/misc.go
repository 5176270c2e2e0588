package dialogs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/parleybot/parley/pkg/bot"
	"github.com/parleybot/parley/pkg/dialog"
)

// Clock tells the time, optionally for a place named in the utterance. The
// entity model maps place literals onto IANA zone names.
type Clock struct {
	*dialog.Machine
	bot *bot.Bot
	now func() time.Time
}

func NewClock(b *bot.Bot) *Clock {
	d := &Clock{
		Machine: dialog.NewMachine(IDClock, "respond"),
		bot:     b,
		now:     time.Now,
	}
	d.Handle("respond", d.respond)
	return d
}

func (d *Clock) respond(ctx context.Context, t *dialog.Turn) (dialog.Directive, error) {
	now := d.now()
	text := fmt.Sprintf("Es ist %s Uhr.", now.Format("15:04"))

	if zones := t.EntitiesInGroup("timezone"); len(zones) > 0 {
		loc, err := time.LoadLocation(zones[0].Name)
		if err != nil {
			d.bot.Reply(ctx, t.Msg, "Den Ort "+zones[0].Value+" kenne ich leider nicht.")
			return dialog.Finish(), nil
		}
		text = fmt.Sprintf("In %s ist es %s Uhr.", zones[0].Value, now.In(loc).Format("15:04"))
	}

	d.bot.Reply(ctx, t.Msg, text)
	return dialog.Finish(), nil
}

// Debug toggles the intent ranking echo and shows the latest utterances the
// classifier was unsure about.
type Debug struct {
	*dialog.Machine
	bot *bot.Bot
}

func NewDebug(b *bot.Bot) *Debug {
	d := &Debug{
		Machine: dialog.NewMachine(IDDebug, "respond"),
		bot:     b,
	}
	d.Handle("respond", d.respond)
	return d
}

func (d *Debug) respond(ctx context.Context, t *dialog.Turn) (dialog.Directive, error) {
	if !d.bot.Config().IsAdmin(t.Msg.SenderID) {
		d.bot.Reply(ctx, t.Msg, "Dazu fehlen dir die Rechte.")
		return dialog.Finish(), nil
	}

	enabled := d.bot.Config().ToggleDebug()
	var sb strings.Builder
	if enabled {
		sb.WriteString("Debug-Modus ist jetzt an.")
	} else {
		sb.WriteString("Debug-Modus ist jetzt aus.")
	}

	if ts := d.bot.Transcript(); ts != nil {
		recent, err := ts.RecentUnclassified(ctx, 5)
		if err != nil {
			return dialog.Directive{}, err
		}
		if len(recent) > 0 {
			sb.WriteString("\nZuletzt nicht verstanden:\n```\n")
			for _, u := range recent {
				fmt.Fprintf(&sb, "%-20s %.2f  %s\n", u.TopIntent, u.Score, u.Content)
			}
			sb.WriteString("```")
		}
	}

	d.bot.Reply(ctx, t.Msg, sb.String())
	return dialog.Finish(), nil
}
