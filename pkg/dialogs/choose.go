package dialogs

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"github.com/parleybot/parley/pkg/bot"
	"github.com/parleybot/parley/pkg/dialog"
)

// Choose shuffles collected elements into a requested number of groups. The
// elements and the group count survive the end of the dialog on purpose, so a
// later run can redo the assignment after a short confirmation.
type Choose struct {
	*dialog.Machine
	bot      *bot.Bot
	elements []string
	groups   int
	shuffle  func(n int, swap func(i, j int))
}

var optionSplit = regexp.MustCompile(`\s*(?:,|;| oder | und )\s*`)

func NewChoose(b *bot.Bot) *Choose {
	d := &Choose{
		Machine: dialog.NewMachine(IDChoose, "start"),
		bot:     b,
		shuffle: rand.Shuffle,
	}
	d.Handle("start", d.start)
	d.Handle("reuse", d.reuse)
	d.Handle("collect", d.collect)
	d.Handle("groups", d.askGroups)
	d.Handle("count", d.readCount)
	d.Handle("generate", d.generate)
	return d
}

func (d *Choose) start(ctx context.Context, t *dialog.Turn) (dialog.Directive, error) {
	if opts := parseOptions(t.Cleaned); len(opts) >= 2 {
		d.elements = opts
		return dialog.Goto("groups"), nil
	}

	if len(d.elements) >= 2 {
		d.bot.Reply(ctx, t.Msg, "Soll ich die alten Werte nochmal neu zuordnen? (ja/nein): "+strings.Join(d.elements, ", "))
		return dialog.Await("reuse"), nil
	}

	d.bot.Reply(ctx, t.Msg, "Welche Werte stehen zur Auswahl? Trenne sie mit Kommas.")
	return dialog.Await("collect"), nil
}

func (d *Choose) reuse(ctx context.Context, t *dialog.Turn) (dialog.Directive, error) {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(t.Cleaned)), "ja") {
		if d.groups < 1 {
			return dialog.Goto("groups"), nil
		}
		return dialog.Goto("generate"), nil
	}

	d.elements = nil
	d.bot.Reply(ctx, t.Msg, "Welche Werte stehen zur Auswahl? Trenne sie mit Kommas.")
	return dialog.Await("collect"), nil
}

func (d *Choose) collect(ctx context.Context, t *dialog.Turn) (dialog.Directive, error) {
	opts := parseOptions(t.Cleaned)
	if len(opts) < 2 {
		d.bot.Reply(ctx, t.Msg, "Ich brauche mindestens zwei Werte, mit Kommas getrennt.")
		return dialog.Await("collect"), nil
	}

	d.elements = opts
	return dialog.Goto("groups"), nil
}

func (d *Choose) askGroups(ctx context.Context, t *dialog.Turn) (dialog.Directive, error) {
	d.bot.Reply(ctx, t.Msg, "In wie viele Gruppen soll ich die Werte aufteilen?")
	return dialog.Await("count"), nil
}

func (d *Choose) readCount(ctx context.Context, t *dialog.Turn) (dialog.Directive, error) {
	n, err := strconv.Atoi(strings.TrimSpace(t.Cleaned))
	if err != nil || n < 1 {
		d.bot.Reply(ctx, t.Msg, "Das ist keine gute Zahl. In wie viele Gruppen?")
		return dialog.Await("count"), nil
	}

	d.groups = n
	return dialog.Goto("generate"), nil
}

func (d *Choose) generate(ctx context.Context, t *dialog.Turn) (dialog.Directive, error) {
	d.shuffle(len(d.elements), func(i, j int) {
		d.elements[i], d.elements[j] = d.elements[j], d.elements[i]
	})

	buckets := make([][]string, d.groups)
	for i, e := range d.elements {
		buckets[i%d.groups] = append(buckets[i%d.groups], e)
	}

	var sb strings.Builder
	sb.WriteString("Zuordnung:\n")
	for i, members := range buckets {
		fmt.Fprintf(&sb, "Gruppe %d: %s\n", i+1, strings.Join(members, ", "))
	}
	d.bot.Reply(ctx, t.Msg, sb.String())
	return dialog.Finish(), nil
}

// parseOptions extracts candidate elements from free text. Lines like
// "wähle zwischen a, b oder c" yield [a b c].
func parseOptions(text string) []string {
	text = strings.TrimSpace(text)
	if idx := strings.LastIndex(strings.ToLower(text), "zwischen "); idx >= 0 {
		text = text[idx+len("zwischen "):]
	}

	var opts []string
	for _, part := range optionSplit.Split(text, -1) {
		if part = strings.TrimSpace(part); part != "" {
			opts = append(opts, part)
		}
	}
	if len(opts) < 2 {
		return nil
	}
	return opts
}
