package nlu

import (
	"context"
	"sync"
)

// Lazy defers construction of the real recognizer until the first utterance
// arrives, so startup does not stall on a model server that is still warming
// up. Construction runs at most once; a failed build is retried on the next
// call.
type Lazy struct {
	build func() (Recognizer, error)

	mu    sync.Mutex
	inner Recognizer
}

func NewLazy(build func() (Recognizer, error)) *Lazy {
	return &Lazy{build: build}
}

func (l *Lazy) Recognize(ctx context.Context, text string) ([]Intent, []Entity, string, error) {
	r, err := l.get()
	if err != nil {
		return nil, nil, "", err
	}
	return r.Recognize(ctx, text)
}

func (l *Lazy) get() (Recognizer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inner != nil {
		return l.inner, nil
	}
	r, err := l.build()
	if err != nil {
		return nil, err
	}
	l.inner = r
	return r, nil
}
