package commands

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/parleybot/parley/pkg/bot"
	"github.com/parleybot/parley/pkg/bus"
	"github.com/parleybot/parley/pkg/logger"
	"github.com/parleybot/parley/pkg/store"
)

// reminderBook is the durable list of pending reminders. Records are
// persisted before they are queued and removed before they fire.
type reminderBook struct {
	doc    *store.Document
	state  reminderState
	parser *when.Parser
	now    func() time.Time
}

type reminderState struct {
	Version   int              `json:"version"`
	Reminders []reminderRecord `json:"reminders"`
}

type reminderRecord struct {
	ID        string `json:"id"`
	DueUnix   int64  `json:"due_unix"`
	Transport string `json:"transport"`
	ChatID    string `json:"chat_id"`
	SenderID  string `json:"sender_id"`
	IsDM      bool   `json:"is_dm"`
	Text      string `json:"text"`
}

func loadReminderBook(path string) (*reminderBook, error) {
	parser := when.New(nil)
	parser.Add(en.All...)
	parser.Add(common.All...)

	rb := &reminderBook{
		doc:    store.New(path, 1, nil),
		state:  reminderState{Version: 1},
		parser: parser,
		now:    time.Now,
	}
	if err := rb.doc.Load(&rb.state); err != nil {
		return nil, err
	}
	return rb, nil
}

func (rb *reminderBook) command() bot.Command {
	return bot.Command{
		Name: "erinnerung",
		Help: "erinnert dich, z.B. /erinnerung morgen um 9 Uhr Brot kaufen",
		Fn: func(ctx context.Context, b *bot.Bot, msg bus.InboundMessage, args string) error {
			due, text, ok := rb.findTime(args)
			if !ok {
				b.Reply(ctx, msg, "Wann soll ich dich erinnern? Versuch es wie bei /erinnerung morgen um 9 Uhr Brot kaufen.")
				return nil
			}
			if text == "" {
				text = "Du wolltest erinnert werden."
			}

			rec := reminderRecord{
				ID:        uuid.NewString(),
				DueUnix:   due.Unix(),
				Transport: msg.Channel,
				ChatID:    msg.ChatID,
				SenderID:  msg.SenderID,
				IsDM:      msg.IsDM,
				Text:      text,
			}
			rb.state.Reminders = append(rb.state.Reminders, rec)
			if err := rb.doc.Save(&rb.state); err != nil {
				return err
			}
			rb.queue(b, rec)

			b.Reply(ctx, msg, "Alles klar, ich erinnere dich am "+due.Format("02.01. um 15:04")+" Uhr.")
			return nil
		},
	}
}

func (rb *reminderBook) restore(b *bot.Bot) {
	for _, rec := range rb.state.Reminders {
		rb.queue(b, rec)
	}
}

func (rb *reminderBook) queue(b *bot.Bot, rec reminderRecord) {
	b.Scheduler().Queue("reminder", time.Unix(rec.DueUnix, 0), func(ctx context.Context) error {
		if err := b.Do(ctx, func(ctx context.Context) error {
			rb.remove(rec.ID)
			return nil
		}); err != nil {
			return err
		}

		if rec.IsDM {
			return b.DM(ctx, rec.Transport, rec.SenderID, "Erinnerung: "+rec.Text)
		}
		m, err := b.Messenger(rec.Transport)
		if err != nil {
			return err
		}
		_, err = m.Send(ctx, rec.ChatID, "<@"+rec.SenderID+"> Erinnerung: "+rec.Text)
		return err
	})
}

func (rb *reminderBook) remove(id string) {
	recs := rb.state.Reminders
	for i, r := range recs {
		if r.ID == id {
			rb.state.Reminders = append(recs[:i], recs[i+1:]...)
			break
		}
	}
	if err := rb.doc.Save(&rb.state); err != nil {
		logger.ErrorCF("commands", "Failed to persist reminder state", map[string]any{
			"error": err.Error(),
		})
	}
}

// findTime extracts a point in time from German text and returns what is
// left over as the reminder text. English phrases fall back to the when
// parser.
func (rb *reminderBook) findTime(text string) (time.Time, string, bool) {
	now := rb.now()
	remainder := text

	dayOffset, hasDay := 0, false
	if m := dayWordRe.FindStringSubmatchIndex(remainder); m != nil {
		word := remainder[m[2]:m[3]]
		dayOffset = dayWords[strings.ToLower(word)]
		hasDay = true
		remainder = remainder[:m[2]] + remainder[m[3]:]
	}

	year, month, day := now.Date()
	if !hasDay {
		if m := dateRe.FindStringSubmatch(remainder); m != nil {
			day, _ = strconv.Atoi(m[1])
			mon, _ := strconv.Atoi(m[2])
			month = time.Month(mon)
			if m[3] != "" {
				year, _ = strconv.Atoi(m[3])
			}
			hasDay = true
			remainder = strings.Replace(remainder, m[0], "", 1)
		}
	}

	hour, minute, hasClock := 0, 0, false
	if m := clockWordRe.FindStringSubmatch(remainder); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		hasClock = true
		remainder = strings.Replace(remainder, m[0], "", 1)
	} else if m := clockDigitRe.FindStringSubmatch(remainder); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		hasClock = true
		remainder = strings.Replace(remainder, m[0], "", 1)
	}

	if !hasDay && !hasClock {
		if rb.parser == nil {
			return time.Time{}, "", false
		}
		r, err := rb.parser.Parse(text, now)
		if err != nil || r == nil {
			return time.Time{}, "", false
		}
		remainder = strings.TrimSpace(strings.Replace(text, r.Text, "", 1))
		return r.Time, collapseSpaces(remainder), true
	}

	due := time.Date(year, month, day, hour, minute, 0, 0, now.Location())
	due = due.AddDate(0, 0, dayOffset)
	if !hasDay && !due.After(now) {
		// A bare clock time that already passed means tomorrow.
		due = due.AddDate(0, 0, 1)
	}
	if !due.After(now) {
		return time.Time{}, "", false
	}
	return due, collapseSpaces(remainder), true
}

var dayWords = map[string]int{"heute": 0, "morgen": 1, "übermorgen": 2}

// \b is ASCII-only in RE2, so the day words with umlauts use explicit
// letter-class boundaries instead.
var (
	dayWordRe    = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(übermorgen|morgen|heute)(?:[^\p{L}]|$)`)
	dateRe       = regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.(\d{4})?`)
	clockWordRe  = regexp.MustCompile(`(?i)\bum (\d{1,2})(?::(\d{2}))?( uhr)?`)
	clockDigitRe = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
)

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
