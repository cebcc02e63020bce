package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file at the repo root.
const FileName = "auditai.yaml"

// Config represents the top-level auditai.yaml configuration.
type Config struct {
	Rules  RulesConfig  `yaml:"rules"`
	Agent  AgentConfig  `yaml:"agent"`
	Server ServerConfig `yaml:"server"`
	Report ReportConfig `yaml:"report"`
	Log    LogConfig    `yaml:"log"`
	Git    GitConfig    `yaml:"git"`
}

// RulesConfig locates the compliance rule file.
type RulesConfig struct {
	Path string `yaml:"path"` // relative to the repo root unless absolute
}

// AgentConfig controls the LLM assistant.
type AgentConfig struct {
	Model     string `yaml:"model"`
	MaxSteps  int    `yaml:"max_steps"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	SessionTTL     string `yaml:"session_ttl"` // Go duration, e.g. "1h"
	AskPerMinute   int    `yaml:"ask_per_minute"`
}

// ReportConfig controls human-readable output.
type ReportConfig struct {
	CurrencySymbol string `yaml:"currency_symbol"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads an auditai.yaml file from disk. Unset fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if _, err := time.ParseDuration(cfg.Server.SessionTTL); err != nil {
		return nil, fmt.Errorf("parsing server.session_ttl %q: %w", cfg.Server.SessionTTL, err)
	}
	return cfg, nil
}

// LoadRepo reads <repoRoot>/auditai.yaml, falling back to defaults when the
// file does not exist.
func LoadRepo(repoRoot string) (*Config, error) {
	path := filepath.Join(repoRoot, FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Rules: RulesConfig{
			Path: filepath.Join("rules", "compliance-rules.json"),
		},
		Agent: AgentConfig{
			Model:     "gemini-2.5-flash",
			MaxSteps:  5,
			APIKeyEnv: "GEMINI_API_KEY",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 10 << 20,
			SessionTTL:     "1h",
			AskPerMinute:   30,
		},
		Report: ReportConfig{
			CurrencySymbol: "₹",
		},
		Log: LogConfig{
			Level: "info",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "AuditAI",
			AuthorEmail: "audit@auditai.dev",
		},
	}
}

// RulesPath resolves the rule file against repoRoot.
func (c *Config) RulesPath(repoRoot string) string {
	if filepath.IsAbs(c.Rules.Path) {
		return c.Rules.Path
	}
	return filepath.Join(repoRoot, c.Rules.Path)
}

// SessionTTL returns the parsed session lifetime. Invalid values fall back to
// one hour.
func (c *Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.Server.SessionTTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// LoadEnv loads <repoRoot>/.env into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnv(repoRoot string) error {
	path := filepath.Join(repoRoot, ".env")
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// APIKey returns the agent API key from the configured environment variable.
func (c *Config) APIKey() string {
	return os.Getenv(c.Agent.APIKeyEnv)
}
