package dialog

import (
	"context"
	"errors"
	"testing"
)

func TestMachine_GotoChainsWithinOneTurn(t *testing.T) {
	m := NewMachine("greet", "hello")
	var visited []string
	m.Handle("hello", func(ctx context.Context, t *Turn) (Directive, error) {
		visited = append(visited, "hello")
		return Goto("bye"), nil
	})
	m.Handle("bye", func(ctx context.Context, t *Turn) (Directive, error) {
		visited = append(visited, "bye")
		return Finish(), nil
	})

	res, err := m.Proceed(context.Background(), &Turn{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != Done {
		t.Fatalf("expected Done, got %v", res)
	}
	if len(visited) != 2 || visited[0] != "hello" || visited[1] != "bye" {
		t.Fatalf("unexpected step order %v", visited)
	}
	if m.Step() != "hello" {
		t.Fatalf("machine must reset to start step, parked at %q", m.Step())
	}
}

func TestMachine_AwaitParksUntilNextTurn(t *testing.T) {
	m := NewMachine("quiz", "ask")
	m.Handle("ask", func(ctx context.Context, t *Turn) (Directive, error) {
		return Await("answer"), nil
	})
	answered := false
	m.Handle("answer", func(ctx context.Context, t *Turn) (Directive, error) {
		answered = true
		return Finish(), nil
	})

	res, err := m.Proceed(context.Background(), &Turn{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != WaitForInput {
		t.Fatalf("expected WaitForInput, got %v", res)
	}
	if answered {
		t.Fatal("answer step ran in the same turn as Await")
	}

	res, err = m.Proceed(context.Background(), &Turn{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != Done || !answered {
		t.Fatalf("second turn did not complete the dialog: res=%v answered=%v", res, answered)
	}
}

func TestMachine_HandlerErrorResets(t *testing.T) {
	m := NewMachine("broken", "start")
	m.Handle("start", func(ctx context.Context, t *Turn) (Directive, error) {
		return Await("mid"), nil
	})
	m.Handle("mid", func(ctx context.Context, t *Turn) (Directive, error) {
		return Directive{}, errors.New("boom")
	})

	if _, err := m.Proceed(context.Background(), &Turn{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.Proceed(context.Background(), &Turn{}); err == nil {
		t.Fatal("expected handler error")
	}
	if m.Step() != "start" {
		t.Fatalf("machine must reset after a handler error, parked at %q", m.Step())
	}
}

func TestMachine_ResetHookClearsState(t *testing.T) {
	m := NewMachine("stateful", "start")
	cleared := 0
	m.OnReset(func() { cleared++ })
	m.Handle("start", func(ctx context.Context, t *Turn) (Directive, error) {
		return Finish(), nil
	})

	if _, err := m.Proceed(context.Background(), &Turn{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("reset hook ran %d times, expected 1", cleared)
	}
}

func TestMachine_TransitionCycleAborts(t *testing.T) {
	m := NewMachine("cycle", "a")
	m.Handle("a", func(ctx context.Context, t *Turn) (Directive, error) { return Goto("b"), nil })
	m.Handle("b", func(ctx context.Context, t *Turn) (Directive, error) { return Goto("a"), nil })

	if _, err := m.Proceed(context.Background(), &Turn{}); err == nil {
		t.Fatal("expected transition limit error")
	}
	if m.Step() != "a" {
		t.Fatalf("machine must reset after aborting, parked at %q", m.Step())
	}
}
