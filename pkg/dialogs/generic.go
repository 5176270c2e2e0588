package dialogs

import (
	"context"
	"strings"

	"github.com/parleybot/parley/pkg/bot"
	"github.com/parleybot/parley/pkg/dialog"
	"github.com/parleybot/parley/pkg/logger"
)

const fallbackText = "Das habe ich leider nicht verstanden, #USER."

// NotUnderstanding answers everything the classifier could not place. The
// reply comes from the answer library so admins can vary the phrasing.
type NotUnderstanding struct {
	*dialog.Machine
	bot *bot.Bot
}

func NewNotUnderstanding(b *bot.Bot) *NotUnderstanding {
	d := &NotUnderstanding{
		Machine: dialog.NewMachine(IDNotUnderstanding, "respond"),
		bot:     b,
	}
	d.Handle("respond", d.respond)
	return d
}

func (d *NotUnderstanding) respond(ctx context.Context, t *dialog.Turn) (dialog.Directive, error) {
	text := fallbackText
	if lib := d.bot.Answers(); lib != nil && lib.Exists(IDNotUnderstanding) {
		if picked, err := lib.Pick(IDNotUnderstanding); err == nil {
			text = picked
		}
	}
	d.bot.Reply(ctx, t.Msg, dialog.Enhance(text, t.Msg))
	return dialog.Finish(), nil
}

// QnA serves canned answers for every intent carrying the QnA prefix, like
// "QnA_Witz" answering from the Witz topic file.
type QnA struct {
	*dialog.Machine
	bot *bot.Bot
}

func NewQnA(b *bot.Bot) *QnA {
	d := &QnA{
		Machine: dialog.NewMachine(IDQnA, "respond"),
		bot:     b,
	}
	d.Handle("respond", d.respond)
	return d
}

func (d *QnA) respond(ctx context.Context, t *dialog.Turn) (dialog.Directive, error) {
	top, ok := t.TopIntent()
	if !ok {
		d.bot.Reply(ctx, t.Msg, dialog.Enhance(fallbackText, t.Msg))
		return dialog.Finish(), nil
	}

	topic := topicFromIntent(top.Name)
	lib := d.bot.Answers()
	if lib == nil || !lib.Exists(topic) {
		logger.WarnCF("dialogs", "No answers for QnA topic", map[string]any{
			"intent": top.Name,
			"topic":  topic,
		})
		d.bot.Reply(ctx, t.Msg, dialog.Enhance(fallbackText, t.Msg))
		return dialog.Finish(), nil
	}

	answer, err := lib.Pick(topic)
	if err != nil {
		return dialog.Directive{}, err
	}
	d.bot.Reply(ctx, t.Msg, dialog.Enhance(answer, t.Msg))
	return dialog.Finish(), nil
}

// topicFromIntent maps "QnA_Witz" to "Witz".
func topicFromIntent(intent string) string {
	topic := strings.TrimPrefix(intent, "QnA")
	topic = strings.TrimPrefix(topic, "qna")
	return strings.TrimLeft(topic, "_-: ")
}

// QnAAnswer lets an admin teach the bot a new canned answer in a short
// three-step flow: topic, answer, done.
type QnAAnswer struct {
	*dialog.Machine
	bot   *bot.Bot
	topic string
}

func NewQnAAnswer(b *bot.Bot) *QnAAnswer {
	d := &QnAAnswer{
		Machine: dialog.NewMachine(IDQnAAnswer, "start"),
		bot:     b,
	}
	d.Handle("start", d.start)
	d.Handle("topic", d.readTopic)
	d.Handle("answer", d.readAnswer)
	d.OnReset(func() { d.topic = "" })
	return d
}

func (d *QnAAnswer) start(ctx context.Context, t *dialog.Turn) (dialog.Directive, error) {
	if !d.bot.Config().IsAdmin(t.Msg.SenderID) {
		d.bot.Reply(ctx, t.Msg, "Dazu fehlen dir die Rechte.")
		return dialog.Finish(), nil
	}

	names, err := d.bot.Answers().Names()
	if err != nil {
		return dialog.Directive{}, err
	}
	d.bot.Reply(ctx, t.Msg, "Für welches Thema? Bekannt sind: "+strings.Join(names, ", "))
	return dialog.Await("topic"), nil
}

func (d *QnAAnswer) readTopic(ctx context.Context, t *dialog.Turn) (dialog.Directive, error) {
	topic := strings.TrimSpace(t.Cleaned)
	if topic == "" {
		d.bot.Reply(ctx, t.Msg, "Das Thema braucht einen Namen. Nochmal bitte.")
		return dialog.Await("topic"), nil
	}

	d.topic = strings.Fields(topic)[0]
	d.bot.Reply(ctx, t.Msg, "Wie lautet die neue Antwort für "+d.topic+"?")
	return dialog.Await("answer"), nil
}

func (d *QnAAnswer) readAnswer(ctx context.Context, t *dialog.Turn) (dialog.Directive, error) {
	if err := d.bot.Answers().Insert(d.topic, t.Msg.Content); err != nil {
		return dialog.Directive{}, err
	}
	d.bot.Reply(ctx, t.Msg, "Gemerkt! Die Antwort gehört jetzt zu "+d.topic+".")
	return dialog.Finish(), nil
}
