package dialog

import (
	"context"
	"fmt"
)

// StepID names one step of a dialog's flow.
type StepID string

// maxTransitions bounds chained Goto directives within a single turn. A
// dialog that exceeds it has a transition cycle.
const maxTransitions = 64

type directiveKind int

const (
	kindGoto directiveKind = iota
	kindAwait
	kindFinish
)

// Directive is a step handler's verdict on where the dialog goes next.
type Directive struct {
	kind directiveKind
	next StepID
}

// Goto continues with the named step within the same turn.
func Goto(next StepID) Directive { return Directive{kind: kindGoto, next: next} }

// Await parks the dialog at the named step until the user's next utterance.
func Await(next StepID) Directive { return Directive{kind: kindAwait, next: next} }

// Finish ends the dialog run and resets it to its start step.
func Finish() Directive { return Directive{kind: kindFinish} }

// Handler runs one step for the current turn.
type Handler func(ctx context.Context, t *Turn) (Directive, error)

// Machine is a step machine over a fixed transition table. Dialogs embed it
// and register a handler per step.
type Machine struct {
	id       string
	start    StepID
	current  StepID
	handlers map[StepID]Handler
	onReset  func()
}

func NewMachine(id string, start StepID) *Machine {
	return &Machine{
		id:       id,
		start:    start,
		current:  start,
		handlers: make(map[StepID]Handler),
	}
}

func (m *Machine) ID() string { return m.id }

// Step reports where the machine is parked.
func (m *Machine) Step() StepID { return m.current }

// Handle registers the handler for one step.
func (m *Machine) Handle(id StepID, h Handler) {
	m.handlers[id] = h
}

// OnReset registers a hook that clears dialog-owned state on every reset.
// Dialogs that keep collected values across runs simply register none.
func (m *Machine) OnReset(fn func()) {
	m.onReset = fn
}

// Proceed feeds one turn into the machine, following Goto chains until a
// handler awaits input or finishes. A handler error resets the machine so
// the next utterance starts the dialog fresh.
func (m *Machine) Proceed(ctx context.Context, t *Turn) (Result, error) {
	for i := 0; i < maxTransitions; i++ {
		h, ok := m.handlers[m.current]
		if !ok {
			step := m.current
			m.Reset()
			return Done, fmt.Errorf("dialog %s: no handler for step %q", m.id, step)
		}

		d, err := h(ctx, t)
		if err != nil {
			step := m.current
			m.Reset()
			return Done, fmt.Errorf("dialog %s, step %s: %w", m.id, step, err)
		}

		switch d.kind {
		case kindGoto:
			m.current = d.next
		case kindAwait:
			m.current = d.next
			return WaitForInput, nil
		case kindFinish:
			m.Reset()
			return Done, nil
		}
	}

	m.Reset()
	return Done, fmt.Errorf("dialog %s: transition limit exceeded", m.id)
}

// Reset parks the machine at its start step and runs the reset hook.
func (m *Machine) Reset() {
	m.current = m.start
	if m.onReset != nil {
		m.onReset()
	}
}
