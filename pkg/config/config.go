package config

import (
	"os"
	"slices"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/parleybot/parley/pkg/logger"
	"github.com/parleybot/parley/pkg/store"
)

const schemaVersion = 1

type Config struct {
	Version int `json:"version"`

	Discord DiscordConfig `json:"discord"`
	NLU     NLUConfig     `json:"nlu"`

	// TTLSeconds is how long bot replies survive in guild channels before
	// their scheduled deletion fires.
	TTLSeconds float64 `json:"ttl_seconds" env:"PARLEY_TTL_SECONDS"`

	StateDir string `json:"state_dir" env:"PARLEY_STATE_DIR"`
	QnADir   string `json:"qna_dir" env:"PARLEY_QNA_DIR"`
	LogLevel string `json:"log_level" env:"PARLEY_LOG_LEVEL"`

	Channels []string `json:"channels"`
	Admins   []string `json:"admins"`

	Debug        bool `json:"debug"`
	RespondAll   bool `json:"respond_all"`
	KeepMessages bool `json:"keep_messages"`

	doc *store.Document
	mu  sync.Mutex
}

type DiscordConfig struct {
	Token     string   `json:"token" env:"PARLEY_DISCORD_TOKEN"`
	AllowFrom []string `json:"allow_from" env:"PARLEY_DISCORD_ALLOW_FROM"`
}

type NLUConfig struct {
	BaseURL      string  `json:"base_url" env:"PARLEY_NLU_BASE_URL"`
	Threshold    float64 `json:"threshold" env:"PARLEY_NLU_THRESHOLD"`
	EntityFile   string  `json:"entity_file" env:"PARLEY_NLU_ENTITY_FILE"`
	TranscriptDB string  `json:"transcript_db" env:"PARLEY_NLU_TRANSCRIPT_DB"`
}

func DefaultConfig() *Config {
	return &Config{
		Version: schemaVersion,
		NLU: NLUConfig{
			BaseURL:      "http://localhost:5005",
			Threshold:    0.7,
			EntityFile:   "./nlu/entities.json",
			TranscriptDB: "./states/transcript.db",
		},
		TTLSeconds:   10,
		StateDir:     "./states",
		QnADir:       "./QnA",
		LogLevel:     "info",
		Channels:     []string{},
		Admins:       []string{},
		KeepMessages: true,
	}
}

// Path returns the config file location, overridable via PARLEY_CONFIG.
func Path() string {
	if p := os.Getenv("PARLEY_CONFIG"); p != "" {
		return p
	}
	return "./config.json"
}

// Load reads the config file (creating it with defaults when missing) and
// applies environment overrides on top. Environment values win but are not
// written back to disk.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.doc = store.New(path, schemaVersion, nil)

	if err := cfg.doc.Load(cfg); err != nil {
		return nil, err
	}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsAdmin(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Admins) == 0 {
		return true
	}
	return slices.Contains(c.Admins, userID)
}

func (c *Config) GetAdmins() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.Admins)
}

// AddAdmins appends the given user ids to the admin list and persists.
func (c *Config) AddAdmins(userIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range userIDs {
		if !slices.Contains(c.Admins, id) {
			c.Admins = append(c.Admins, id)
		}
	}
	c.persistLocked()
}

func (c *Config) IsChannel(channelID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Contains(c.Channels, channelID)
}

func (c *Config) GetChannels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.Channels)
}

func (c *Config) AddChannel(channelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if slices.Contains(c.Channels, channelID) {
		return
	}
	c.Channels = append(c.Channels, channelID)
	c.persistLocked()
}

func (c *Config) IsDebug() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Debug
}

func (c *Config) ToggleDebug() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Debug = !c.Debug
	c.persistLocked()
	return c.Debug
}

func (c *Config) IsRespondAll() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.RespondAll
}

func (c *Config) ToggleRespondAll() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.RespondAll = !c.RespondAll
	c.persistLocked()
	return c.RespondAll
}

func (c *Config) IsKeepMessages() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.KeepMessages
}

func (c *Config) ToggleKeepMessages() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.KeepMessages = !c.KeepMessages
	c.persistLocked()
	return c.KeepMessages
}

func (c *Config) TTL() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.TTLSeconds
}

func (c *Config) persistLocked() {
	if c.doc == nil {
		return
	}
	if err := c.doc.Save(c); err != nil {
		logger.ErrorCF("config", "Failed to persist config", map[string]any{
			"path":  c.doc.Path(),
			"error": err.Error(),
		})
	}
}
