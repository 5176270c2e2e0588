package dialog

import (
	"context"
	"strings"

	"github.com/parleybot/parley/pkg/logger"
)

// Registry routes one user's turns to their dialog instances. A suspended
// dialog receives the next turn unconditionally; otherwise the top intent
// decides. Registries are confined to the bot's event loop and need no lock.
type Registry struct {
	dialogs    map[string]Dialog
	intents    map[string]string
	threshold  float64
	fallbackID string
	qnaPrefix  string
	qnaID      string
	suspended  string
	missing    func(ctx context.Context, t *Turn)
}

func NewRegistry(threshold float64, fallbackID, qnaID string) *Registry {
	return &Registry{
		dialogs:    make(map[string]Dialog),
		intents:    make(map[string]string),
		threshold:  threshold,
		fallbackID: fallbackID,
		qnaPrefix:  "qna",
		qnaID:      qnaID,
	}
}

// Register adds a dialog instance under its ID.
func (r *Registry) Register(d Dialog) {
	r.dialogs[d.ID()] = d
}

// Bind maps an intent name to a dialog ID. Lookup is case-insensitive.
func (r *Registry) Bind(intent, dialogID string) {
	r.intents[strings.ToLower(intent)] = dialogID
}

// OnMissing registers the handler invoked when routing resolves to a dialog
// id no dialog is registered under, so the user gets a distinct answer
// instead of an ordinary fallback reply. The turn is not dispatched further.
func (r *Registry) OnMissing(fn func(ctx context.Context, t *Turn)) {
	r.missing = fn
}

// HasSuspended reports whether a dialog is waiting for this user's next
// utterance.
func (r *Registry) HasSuspended() bool {
	return r.suspended != ""
}

// Handle routes one turn. The suspended slot is cleared before dispatch and
// set again only when the dialog asks to wait, so a dialog that fails mid-run
// never leaves the user stuck in it.
func (r *Registry) Handle(ctx context.Context, t *Turn) error {
	id := r.route(t)
	r.suspended = ""

	d, ok := r.dialogs[id]
	if !ok {
		logger.WarnCF("dialog", "Routed to unregistered dialog", map[string]any{
			"dialog": id,
		})
		if r.missing != nil {
			r.missing(ctx, t)
		}
		return nil
	}

	res, err := d.Proceed(ctx, t)
	if err != nil {
		return err
	}
	if res == WaitForInput {
		r.suspended = d.ID()
	}
	return nil
}

func (r *Registry) route(t *Turn) string {
	if r.suspended != "" {
		return r.suspended
	}

	top, ok := t.TopIntent()
	if !ok || top.Score <= r.threshold {
		return r.fallbackID
	}

	name := strings.ToLower(top.Name)
	if strings.HasPrefix(name, r.qnaPrefix) && r.qnaID != "" {
		return r.qnaID
	}
	if id, ok := r.intents[name]; ok {
		return id
	}
	return r.fallbackID
}
