package config

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	webhooksOnce   sync.Once
	webhooksConfig *WebhooksConfig
)

// RequestMode selects how a generation endpoint is called. The automation
// pipeline has been deployed both ways.
type RequestMode string

const (
	// ModeQuery sends a GET with user_id and filename query parameters.
	ModeQuery RequestMode = "query"
	// ModeJSON posts filename, base64 document content and user id.
	ModeJSON RequestMode = "json"
)

// EndpointConfig is one remote webhook.
type EndpointConfig struct {
	URL  string      `yaml:"url"`
	Mode RequestMode `yaml:"mode,omitempty"`
}

// RetrySettings bound the opt-in retry policy for webhook calls.
// MaxAttempts of 1 (the default) keeps the original terminal-failure
// behavior.
type RetrySettings struct {
	MaxAttempts int    `yaml:"max_attempts"`
	Delay       string `yaml:"delay"`
	Backoff     bool   `yaml:"backoff"`
}

// WebhooksConfig names the external automation endpoints.
type WebhooksConfig struct {
	Translate EndpointConfig `yaml:"translate"`
	// Mirror optionally receives a copy of every upload; failures there
	// never block the translation.
	Mirror   EndpointConfig `yaml:"mirror"`
	Summary  EndpointConfig `yaml:"summary"`
	Insights EndpointConfig `yaml:"insights"`
	Chat     EndpointConfig `yaml:"chat"`
	Timeout  string         `yaml:"timeout"`
	Retry    RetrySettings  `yaml:"retry"`
}

// RequestTimeout parses the configured timeout, defaulting to 60s.
func (c *WebhooksConfig) RequestTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
		return d
	}
	return 60 * time.Second
}

// RetryDelay parses the configured delay, defaulting to 5s.
func (c *WebhooksConfig) RetryDelay() time.Duration {
	if d, err := time.ParseDuration(c.Retry.Delay); err == nil && d > 0 {
		return d
	}
	return 5 * time.Second
}

func GetWebhooksConfig() *WebhooksConfig {
	webhooksOnce.Do(func() {
		loadEnv()

		path := os.Getenv("WEBHOOKS_CONFIG")
		if path == "" {
			_, filename, _, _ := runtime.Caller(0)
			rootDir := filepath.Dir(filepath.Dir(filename))
			path = filepath.Join(rootDir, "configs", "webhooks.yaml")
		}

		cfg := &WebhooksConfig{}
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Warning: webhooks config not found at %s, falling back to environment variables", path)
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Printf("Warning: invalid webhooks config at %s: %v", path, err)
		}

		// Environment beats the file for every endpoint.
		cfg.Translate.URL = getenv("WEBHOOK_TRANSLATE_URL", cfg.Translate.URL)
		cfg.Mirror.URL = getenv("WEBHOOK_MIRROR_URL", cfg.Mirror.URL)
		cfg.Summary.URL = getenv("WEBHOOK_SUMMARY_URL", cfg.Summary.URL)
		cfg.Insights.URL = getenv("WEBHOOK_INSIGHTS_URL", cfg.Insights.URL)
		cfg.Chat.URL = getenv("WEBHOOK_CHAT_URL", cfg.Chat.URL)

		if cfg.Summary.Mode == "" {
			cfg.Summary.Mode = ModeQuery
		}
		if cfg.Insights.Mode == "" {
			cfg.Insights.Mode = ModeQuery
		}

		webhooksConfig = cfg
	})
	return webhooksConfig
}
