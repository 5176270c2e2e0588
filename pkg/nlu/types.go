package nlu

import "context"

// Intent is one classification candidate, highest score first.
type Intent struct {
	Name  string  `json:"name"`
	Score float64 `json:"confidence"`
}

// Entity is a literal found in an utterance. Group is the entity class
// ("city", "timezone"), Name the canonical key, Value the matched literal.
type Entity struct {
	Name  string
	Group string
	Value string
}

// Recognizer turns free text into ranked intents and matched entities.
// The cleaned text actually sent to classification is returned alongside.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]Intent, []Entity, string, error)
}
