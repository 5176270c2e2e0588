// Package qna serves canned answers from plain text files, one answer per
// line, one file per topic.
package qna

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

type Library struct {
	dir string
}

func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

// Names lists the available topics, derived from the file names.
func (l *Library) Names() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read answer dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".txt"))
	}
	return names, nil
}

// Exists reports whether a topic file is present. Lookup is
// case-insensitive.
func (l *Library) Exists(topic string) bool {
	_, err := l.resolve(topic)
	return err == nil
}

// Pick returns a random answer for the topic.
func (l *Library) Pick(topic string) (string, error) {
	lines, err := l.lines(topic)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("topic %q has no answers", topic)
	}
	return lines[rand.Intn(len(lines))], nil
}

// Insert prepends an answer to the topic file, creating the file when the
// topic is new. Newest answers sit on top so curators see them first.
func (l *Library) Insert(topic, answer string) error {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return fmt.Errorf("empty answer for topic %q", topic)
	}

	path, err := l.resolve(topic)
	if err != nil {
		if err := os.MkdirAll(l.dir, 0o755); err != nil {
			return fmt.Errorf("create answer dir: %w", err)
		}
		path = filepath.Join(l.dir, topic+".txt")
	}

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read topic %q: %w", topic, err)
	}

	content := answer + "\n" + string(existing)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write topic %q: %w", topic, err)
	}
	return nil
}

func (l *Library) lines(topic string) ([]string, error) {
	path, err := l.resolve(topic)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topic %q: %w", topic, err)
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (l *Library) resolve(topic string) (string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return "", fmt.Errorf("read answer dir: %w", err)
	}
	want := strings.ToLower(topic) + ".txt"
	for _, e := range entries {
		if !e.IsDir() && strings.ToLower(e.Name()) == want {
			return filepath.Join(l.dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("unknown topic %q", topic)
}
