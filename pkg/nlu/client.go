package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/parleybot/parley/pkg/logger"
)

// unknownRunes strips everything the classifier was not trained on. Umlauts
// and the sharp s stay, punctuation and emoji go.
var unknownRunes = regexp.MustCompile(`[^a-zA-Z0-9ÄÖÜäöüß -]`)

// Recorder receives every classified utterance for later curation.
type Recorder interface {
	Record(content, topIntent string, score float64, classified bool) error
}

// Client classifies utterances against a running RASA NLU server and
// matches entities locally against the loaded entity model.
type Client struct {
	baseURL    string
	threshold  float64
	entities   *EntityModel
	recorder   Recorder
	httpClient *http.Client
}

func NewClient(baseURL string, threshold float64, entities *EntityModel, recorder Recorder) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		threshold:  threshold,
		entities:   entities,
		recorder:   recorder,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Recognize cleans text, sends it to the model server and returns the intent
// ranking best first. Text that is empty after cleaning returns all nils
// without a server round trip.
func (c *Client) Recognize(ctx context.Context, text string) ([]Intent, []Entity, string, error) {
	cleaned := strings.TrimSpace(unknownRunes.ReplaceAllString(text, ""))
	if cleaned == "" {
		return nil, nil, "", nil
	}

	intents, err := c.parse(ctx, cleaned)
	if err != nil {
		return nil, nil, cleaned, err
	}

	c.record(cleaned, intents)

	return intents, c.entities.Match(cleaned), cleaned, nil
}

func (c *Client) parse(ctx context.Context, text string) ([]Intent, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal parse request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/model/parse", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create parse request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach NLU server: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read parse response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("NLU parse request failed: status %d: %s", resp.StatusCode, string(body))
	}

	var apiResponse struct {
		IntentRanking []Intent `json:"intent_ranking"`
	}
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal parse response: %w", err)
	}

	intents := apiResponse.IntentRanking
	sort.SliceStable(intents, func(i, j int) bool { return intents[i].Score > intents[j].Score })
	return intents, nil
}

func (c *Client) record(cleaned string, intents []Intent) {
	if c.recorder == nil {
		return
	}

	topIntent := ""
	score := 0.0
	if len(intents) > 0 {
		topIntent = intents[0].Name
		score = intents[0].Score
	}
	classified := topIntent != "" && score > c.threshold

	if err := c.recorder.Record(cleaned, topIntent, score, classified); err != nil {
		logger.WarnCF("nlu", "Failed to record utterance", map[string]any{
			"error": err.Error(),
		})
	}
}
