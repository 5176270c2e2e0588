// Package dialog holds the conversation engine: a step machine per dialog
// and a per-user registry that routes classified utterances to dialogs.
package dialog

import (
	"context"
	"strings"

	"github.com/parleybot/parley/pkg/bus"
	"github.com/parleybot/parley/pkg/nlu"
)

// Result tells the registry what to do after a dialog turn.
type Result int

const (
	// Done means the dialog finished its run; the next utterance is routed
	// by intent again.
	Done Result = iota
	// WaitForInput means the dialog expects the next utterance of this user
	// regardless of its intent.
	WaitForInput
)

// Turn is everything a dialog sees for one utterance.
type Turn struct {
	Msg      bus.InboundMessage
	Intents  []nlu.Intent
	Entities []nlu.Entity
	// Cleaned is the classifier-facing form of the message content.
	Cleaned string
}

// TopIntent returns the best ranked intent, if any.
func (t *Turn) TopIntent() (nlu.Intent, bool) {
	if len(t.Intents) == 0 {
		return nlu.Intent{}, false
	}
	return t.Intents[0], true
}

// EntitiesInGroup filters the turn's entities by entity class.
func (t *Turn) EntitiesInGroup(group string) []nlu.Entity {
	var out []nlu.Entity
	for _, e := range t.Entities {
		if e.Group == group {
			out = append(out, e)
		}
	}
	return out
}

// Dialog is one conversation flow. Proceed consumes a turn and reports
// whether the dialog wants the user's next utterance too.
type Dialog interface {
	ID() string
	Proceed(ctx context.Context, t *Turn) (Result, error)
	Reset()
}

// Enhance expands the #USER and #CHANNEL placeholders of a reply template
// for the turn's message. In direct messages there is nothing to mention, so
// the plain author name is used.
func Enhance(text string, msg bus.InboundMessage) string {
	user := "<@" + msg.SenderID + ">"
	channel := "<#" + msg.ChatID + ">"
	if msg.IsDM {
		user = "@" + msg.SenderName
		channel = msg.ChatName
	}
	text = strings.ReplaceAll(text, "#USER", user)
	return strings.ReplaceAll(text, "#CHANNEL", channel)
}
