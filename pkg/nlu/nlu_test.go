package nlu

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEntityModel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entities.json")
	model := `{
		"city": {
			"bonn": ["Bonn"],
			"new_york": ["New York"]
		},
		"country": {
			"oesterreich": ["Österreich"]
		},
		"timezone": {
			"utc": ["UTC"]
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(model), 0o644))
	return path
}

func TestEntityModel_MatchesWordBounded(t *testing.T) {
	m, err := LoadEntityModel(writeEntityModel(t))
	require.NoError(t, err)

	found := m.Match("wie spät ist es in bonn")
	require.Len(t, found, 1)
	assert.Equal(t, "bonn", found[0].Name)
	assert.Equal(t, "city", found[0].Group)
	assert.Equal(t, "Bonn", found[0].Value)

	assert.Empty(t, m.Match("der bonner hauptbahnhof"))
	assert.Len(t, m.Match("Uhrzeit in New York bitte"), 1)
}

func TestEntityModel_MatchesUmlautLiterals(t *testing.T) {
	m, err := LoadEntityModel(writeEntityModel(t))
	require.NoError(t, err)

	found := m.Match("wie spät ist es in Österreich")
	require.Len(t, found, 1)
	assert.Equal(t, "oesterreich", found[0].Name)
	assert.Equal(t, "country", found[0].Group)

	assert.Empty(t, m.Match("alle österreicher sind hier"))
}

type fakeRecorder struct {
	content    string
	topIntent  string
	score      float64
	classified bool
	calls      int
}

func (r *fakeRecorder) Record(content, topIntent string, score float64, classified bool) error {
	r.content = content
	r.topIntent = topIntent
	r.score = score
	r.classified = classified
	r.calls++
	return nil
}

func TestClient_RecognizeCleansAndRanks(t *testing.T) {
	var gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/model/parse", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotText = req["text"]

		json.NewEncoder(w).Encode(map[string]any{
			"intent_ranking": []map[string]any{
				{"name": "Clock", "confidence": 0.92},
				{"name": "None", "confidence": 0.04},
			},
		})
	}))
	defer srv.Close()

	model, err := LoadEntityModel(writeEntityModel(t))
	require.NoError(t, err)
	rec := &fakeRecorder{}
	c := NewClient(srv.URL, 0.7, model, rec)

	intents, entities, cleaned, err := c.Recognize(context.Background(), "Wie spät ist es in Bonn?!")
	require.NoError(t, err)

	assert.Equal(t, "Wie spät ist es in Bonn", gotText)
	assert.Equal(t, "Wie spät ist es in Bonn", cleaned)
	require.Len(t, intents, 2)
	assert.Equal(t, "Clock", intents[0].Name)
	require.Len(t, entities, 1)
	assert.Equal(t, "bonn", entities[0].Name)

	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, "Clock", rec.topIntent)
	assert.True(t, rec.classified)
}

func TestClient_EmptyAfterCleaningSkipsServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("server must not be called for empty input")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0.7, nil, nil)
	intents, entities, cleaned, err := c.Recognize(context.Background(), "?!... 🤖")
	require.NoError(t, err)
	assert.Nil(t, intents)
	assert.Nil(t, entities)
	assert.Empty(t, cleaned)
}

func TestClient_LowScoreRecordedUnclassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"intent_ranking": []map[string]any{{"name": "Clock", "confidence": 0.3}},
		})
	}))
	defer srv.Close()

	rec := &fakeRecorder{}
	c := NewClient(srv.URL, 0.7, nil, rec)

	_, _, _, err := c.Recognize(context.Background(), "irgendwas unklares")
	require.NoError(t, err)
	assert.False(t, rec.classified)
	assert.InDelta(t, 0.3, rec.score, 1e-9)
}

func TestLazy_BuildsOnceAndRetriesAfterFailure(t *testing.T) {
	builds := 0
	fail := true
	l := NewLazy(func() (Recognizer, error) {
		builds++
		if fail {
			return nil, errors.New("model server not ready")
		}
		return recognizerFunc(func(ctx context.Context, text string) ([]Intent, []Entity, string, error) {
			return []Intent{{Name: "Clock", Score: 1}}, nil, text, nil
		}), nil
	})

	_, _, _, err := l.Recognize(context.Background(), "hi")
	require.Error(t, err)

	fail = false
	for i := 0; i < 2; i++ {
		intents, _, _, err := l.Recognize(context.Background(), "hi")
		require.NoError(t, err)
		require.Len(t, intents, 1)
	}
	assert.Equal(t, 2, builds)
}

type recognizerFunc func(ctx context.Context, text string) ([]Intent, []Entity, string, error)

func (f recognizerFunc) Recognize(ctx context.Context, text string) ([]Intent, []Entity, string, error) {
	return f(ctx, text)
}
