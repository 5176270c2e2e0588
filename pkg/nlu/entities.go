package nlu

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// EntityModel matches known literals inside an utterance. The model file is
// a JSON object of the form {"group": {"name": ["literal", ...]}}; each
// literal is compiled into a word-bounded, case-insensitive pattern.
type EntityModel struct {
	patterns []entityPattern
}

type entityPattern struct {
	name  string
	group string
	value string
	re    *regexp.Regexp
}

func LoadEntityModel(path string) (*EntityModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entity model: %w", err)
	}

	var raw map[string]map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse entity model %s: %w", path, err)
	}

	m := &EntityModel{}
	for group, names := range raw {
		for name, values := range names {
			for _, value := range values {
				// \b is ASCII-only in RE2, so literals with umlauts need
				// explicit letter-class boundaries.
				re, err := regexp.Compile(`(?:^|[^\p{L}])` + regexp.QuoteMeta(strings.ToLower(value)) + `(?:[^\p{L}]|$)`)
				if err != nil {
					return nil, fmt.Errorf("compile entity pattern %q: %w", value, err)
				}
				m.patterns = append(m.patterns, entityPattern{
					name:  name,
					group: group,
					value: value,
					re:    re,
				})
			}
		}
	}
	return m, nil
}

// Match returns every entity literal present in text. Matching is
// case-insensitive and word-bounded, so "bonn" matches but "bonner" does not.
func (m *EntityModel) Match(text string) []Entity {
	if m == nil {
		return nil
	}
	lowered := strings.ToLower(text)

	var found []Entity
	for _, p := range m.patterns {
		if p.re.MatchString(lowered) {
			found = append(found, Entity{Name: p.name, Group: p.group, Value: p.value})
		}
	}
	return found
}
