package dialog

import (
	"context"
	"errors"
	"testing"

	"github.com/parleybot/parley/pkg/nlu"
)

type scriptedDialog struct {
	id      string
	results []Result
	errs    []error
	turns   int
	resets  int
}

func (d *scriptedDialog) ID() string { return d.id }

func (d *scriptedDialog) Proceed(ctx context.Context, t *Turn) (Result, error) {
	i := d.turns
	d.turns++
	var err error
	if i < len(d.errs) {
		err = d.errs[i]
	}
	res := Done
	if i < len(d.results) {
		res = d.results[i]
	}
	return res, err
}

func (d *scriptedDialog) Reset() { d.resets++ }

func turnWith(intent string, score float64) *Turn {
	return &Turn{Intents: []nlu.Intent{{Name: intent, Score: score}}}
}

func newTestRegistry(dialogs ...*scriptedDialog) *Registry {
	r := NewRegistry(0.7, "notunderstanding", "qna")
	for _, d := range dialogs {
		r.Register(d)
	}
	return r
}

func TestRegistry_RoutesByIntent(t *testing.T) {
	clock := &scriptedDialog{id: "clock"}
	fallback := &scriptedDialog{id: "notunderstanding"}
	r := newTestRegistry(clock, fallback)
	r.Bind("Clock", "clock")

	if err := r.Handle(context.Background(), turnWith("Clock", 0.9)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clock.turns != 1 || fallback.turns != 0 {
		t.Fatalf("expected clock dialog to handle the turn: clock=%d fallback=%d", clock.turns, fallback.turns)
	}
}

func TestRegistry_ScoreAtThresholdFallsBack(t *testing.T) {
	clock := &scriptedDialog{id: "clock"}
	fallback := &scriptedDialog{id: "notunderstanding"}
	r := newTestRegistry(clock, fallback)
	r.Bind("Clock", "clock")

	if err := r.Handle(context.Background(), turnWith("Clock", 0.7)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fallback.turns != 1 {
		t.Fatal("score equal to the threshold must not be trusted")
	}
}

func TestRegistry_NoIntentsFallsBack(t *testing.T) {
	fallback := &scriptedDialog{id: "notunderstanding"}
	r := newTestRegistry(fallback)

	if err := r.Handle(context.Background(), &Turn{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fallback.turns != 1 {
		t.Fatal("turn without intents must reach the fallback dialog")
	}
}

func TestRegistry_QnAPrefixRoutesToQnADialog(t *testing.T) {
	qna := &scriptedDialog{id: "qna"}
	fallback := &scriptedDialog{id: "notunderstanding"}
	r := newTestRegistry(qna, fallback)

	if err := r.Handle(context.Background(), turnWith("QnA_Joke", 0.95)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qna.turns != 1 {
		t.Fatal("QnA-prefixed intent must route to the QnA dialog")
	}
}

func TestRegistry_SuspendedDialogWinsOverIntent(t *testing.T) {
	quiz := &scriptedDialog{id: "quiz", results: []Result{WaitForInput, Done}}
	clock := &scriptedDialog{id: "clock"}
	fallback := &scriptedDialog{id: "notunderstanding"}
	r := newTestRegistry(quiz, clock, fallback)
	r.Bind("Quiz", "quiz")
	r.Bind("Clock", "clock")

	if err := r.Handle(context.Background(), turnWith("Quiz", 0.9)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.HasSuspended() {
		t.Fatal("registry must remember the waiting dialog")
	}

	// The next turn carries a strong Clock intent but belongs to the quiz.
	if err := r.Handle(context.Background(), turnWith("Clock", 0.99)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quiz.turns != 2 || clock.turns != 0 {
		t.Fatalf("suspended dialog must receive the turn: quiz=%d clock=%d", quiz.turns, clock.turns)
	}
	if r.HasSuspended() {
		t.Fatal("suspension must clear once the dialog is done")
	}
}

func TestRegistry_ErrorClearsSuspension(t *testing.T) {
	quiz := &scriptedDialog{
		id:      "quiz",
		results: []Result{WaitForInput, Done},
		errs:    []error{nil, errors.New("boom")},
	}
	fallback := &scriptedDialog{id: "notunderstanding"}
	r := newTestRegistry(quiz, fallback)
	r.Bind("Quiz", "quiz")

	if err := r.Handle(context.Background(), turnWith("Quiz", 0.9)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Handle(context.Background(), turnWith("Quiz", 0.9)); err == nil {
		t.Fatal("expected dialog error to surface")
	}
	if r.HasSuspended() {
		t.Fatal("a failing dialog must not stay suspended")
	}
}

func TestRegistry_MissingDialogNotifiesUser(t *testing.T) {
	fallback := &scriptedDialog{id: "notunderstanding"}
	r := newTestRegistry(fallback)
	r.Bind("Ghost", "ghost")

	notified := 0
	r.OnMissing(func(ctx context.Context, turn *Turn) { notified++ })

	if err := r.Handle(context.Background(), turnWith("Ghost", 0.95)); err != nil {
		t.Fatalf("a missing dialog must not be fatal: %v", err)
	}
	if notified != 1 {
		t.Fatalf("expected one missing-dialog notification, got %d", notified)
	}
	if fallback.turns != 0 {
		t.Fatal("a missing dialog must not be masked by the fallback dialog")
	}
}

func TestRegistry_UnknownIntentFallsBack(t *testing.T) {
	fallback := &scriptedDialog{id: "notunderstanding"}
	r := newTestRegistry(fallback)

	if err := r.Handle(context.Background(), turnWith("Unmapped", 0.95)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fallback.turns != 1 {
		t.Fatal("unmapped intent must reach the fallback dialog")
	}
}
