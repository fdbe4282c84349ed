// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Parser  ParserConfig  `mapstructure:"parser"`
	Output  OutputConfig  `mapstructure:"output"`
	Run     RunConfig     `mapstructure:"run"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SourceConfig identifies the external legislative source.
type SourceConfig struct {
	IndexURL string `mapstructure:"index_url"`
	BaseURL  string `mapstructure:"base_url"`
	// DetailPathTemplate builds a detail-page path from year and
	// designation number, e.g. "/statutes/%d/act_%s.html".
	DetailPathTemplate string `mapstructure:"detail_path_template"`
}

// FetchConfig governs pacing, timeout and retry behavior.
type FetchConfig struct {
	UserAgent        string `mapstructure:"user_agent"`
	MinDelayMs       int    `mapstructure:"min_delay_ms"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	MaxRetries       int    `mapstructure:"max_retries"`
	BackoffInitialMs int    `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int    `mapstructure:"backoff_max_ms"`
}

// MinDelay returns the inter-request pacing floor.
func (c FetchConfig) MinDelay() time.Duration {
	return time.Duration(c.MinDelayMs) * time.Millisecond
}

// Timeout returns the per-request timeout.
func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BackoffInitial returns the first retry delay.
func (c FetchConfig) BackoffInitial() time.Duration {
	return time.Duration(c.BackoffInitialMs) * time.Millisecond
}

// BackoffMax returns the retry delay cap.
func (c FetchConfig) BackoffMax() time.Duration {
	return time.Duration(c.BackoffMaxMs) * time.Millisecond
}

// ParserConfig carries the heuristic length bounds used during parsing.
// These are tuning parameters, not load-bearing contracts.
type ParserConfig struct {
	MaxBodyChars       int `mapstructure:"max_body_chars"`
	MinBodyChars       int `mapstructure:"min_body_chars"`
	MaxTermChars       int `mapstructure:"max_term_chars"`
	MinDefinitionChars int `mapstructure:"min_definition_chars"`
	MaxDefinitionChars int `mapstructure:"max_definition_chars"`
	HeadingFallback    int `mapstructure:"heading_fallback_chars"`
}

// OutputConfig sets where records, raw content and the manifest are written.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// RunConfig holds per-run parameters, overridable from the CLI.
type RunConfig struct {
	Limit   int  `mapstructure:"limit"`
	Refresh bool `mapstructure:"refresh"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEXCRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.index_url", "https://legis.example.org/statutes/index.html")
	v.SetDefault("source.base_url", "https://legis.example.org")
	v.SetDefault("source.detail_path_template", "/statutes/%d/act_%s.html")
	v.SetDefault("fetch.user_agent", "lexcorpus-crawler/0.1 (+https://github.com/lexcorpus/crawler)")
	v.SetDefault("fetch.min_delay_ms", 2000)
	v.SetDefault("fetch.timeout_seconds", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.backoff_initial_ms", 2000)
	v.SetDefault("fetch.backoff_max_ms", 30000)
	v.SetDefault("parser.max_body_chars", 12000)
	v.SetDefault("parser.min_body_chars", 10)
	v.SetDefault("parser.max_term_chars", 100)
	v.SetDefault("parser.min_definition_chars", 5)
	v.SetDefault("parser.max_definition_chars", 4000)
	v.SetDefault("parser.heading_fallback_chars", 200)
	v.SetDefault("output.dir", "corpus-out")
	v.SetDefault("run.limit", 0)
	v.SetDefault("run.refresh", false)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Source.IndexURL == "" {
		return fmt.Errorf("source.index_url must be set")
	}
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url must be set")
	}
	if !strings.Contains(c.Source.DetailPathTemplate, "%") {
		return fmt.Errorf("source.detail_path_template must contain format verbs")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must be >= 0")
	}
	if c.Fetch.MinDelayMs < 0 {
		return fmt.Errorf("fetch.min_delay_ms must be >= 0")
	}
	if c.Parser.MaxBodyChars <= 0 {
		return fmt.Errorf("parser.max_body_chars must be > 0")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must be set")
	}
	return nil
}
