// Package dialogs contains the conversation flows the bot can hold. Each
// dialog is a step machine over a fixed transition table; a fresh instance
// set is built per user so flows never share state between people.
package dialogs

import (
	"context"

	"github.com/parleybot/parley/pkg/bot"
	"github.com/parleybot/parley/pkg/dialog"
)

// Dialog IDs. Intent names map onto these case-insensitively.
const (
	IDNotUnderstanding = "notunderstanding"
	IDQnA              = "qna"
	IDQnAAnswer        = "qnaanswer"
	IDClock            = "clock"
	IDDebug            = "debug"
	IDNews             = "news"
	IDShutdown         = "shutdown"
	IDCleanup          = "cleanup"
	IDChoose           = "choose"
)

// Set builds one user's dialog registry with fresh dialog instances.
func Set(b *bot.Bot) *dialog.Registry {
	r := dialog.NewRegistry(b.Config().NLU.Threshold, IDNotUnderstanding, IDQnA)
	r.OnMissing(func(ctx context.Context, t *dialog.Turn) {
		b.Reply(ctx, t.Msg, "Diesen Dialog kenne ich nicht. Sag bitte einem Admin Bescheid.")
	})

	r.Register(NewNotUnderstanding(b))
	r.Register(NewQnA(b))
	r.Register(NewQnAAnswer(b))
	r.Register(NewClock(b))
	r.Register(NewDebug(b))
	r.Register(NewNews(b))
	r.Register(NewShutdown(b))
	r.Register(NewCleanup(b))
	r.Register(NewChoose(b))

	r.Bind("None", IDNotUnderstanding)
	r.Bind("QnA", IDQnA)
	r.Bind("Clock", IDClock)
	r.Bind("Debug", IDDebug)
	r.Bind("News", IDNews)
	r.Bind("Shutdown", IDShutdown)
	r.Bind("Cleanup", IDCleanup)
	r.Bind("Answer", IDQnAAnswer)
	r.Bind("Choose", IDChoose)

	return r
}
