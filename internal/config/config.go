package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"deckcrafter/internal/types"
)

// Config holds all deckcrafter configuration.
type Config struct {
	// LLM provider used for every generation call
	LLM LLMConfig `yaml:"llm"`

	// Retry budget and validator tuning
	Workflow WorkflowConfig `yaml:"workflow"`

	// Game persistence
	Store StoreConfig `yaml:"store"`

	// Exported documents
	Output OutputConfig `yaml:"output"`

	// HTTP API
	Server ServerConfig `yaml:"server"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Default preferences for new games
	Preferences types.UserPreferences `yaml:"preferences"`
}

// LLMConfig configures the generation client.
type LLMConfig struct {
	Provider        string  `yaml:"provider"` // gemini, ollama
	APIKey          string  `yaml:"api_key"`
	Model           string  `yaml:"model"`
	BaseURL         string  `yaml:"base_url"`
	Temperature     float64 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	Timeout         string  `yaml:"timeout"`
}

// WorkflowConfig configures the generation workflow.
type WorkflowConfig struct {
	// Generation attempts a stage may consume before the run fails
	MaxRetries int `yaml:"max_retries"`

	// Upper bound for a single generation call
	CallTimeout string `yaml:"call_timeout"`

	// Cards per player that must remain to draw after dealing
	DrawPileShare int `yaml:"draw_pile_share"`

	// Card type names that scale with the number of players
	TrapKeywords []string `yaml:"trap_keywords"`
}

// StoreConfig configures the SQLite game store.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite (pure Go), sqlite3 (cgo)
	Path   string `yaml:"path"`
}

// OutputConfig configures document export.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`  // debug, info, warn, error
	Format     string          `yaml:"format"` // json, text
	File       string          `yaml:"file"`
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:        "gemini",
			Model:           "gemini-2.5-flash",
			Temperature:     0.7,
			MaxOutputTokens: 8192,
			Timeout:         "120s",
		},

		Workflow: WorkflowConfig{
			MaxRetries:    3,
			CallTimeout:   "90s",
			DrawPileShare: 2,
			TrapKeywords:  []string{"mazmorra", "trap", "trampa"},
		},

		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "data/deckcrafter.db",
		},

		Output: OutputConfig{
			Path: "output/game.json",
		},

		Server: ServerConfig{
			Addr: ":8000",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},

		Preferences: DefaultPreferences(),
	}
}

// DefaultPreferences is the party game requested when the user sets nothing.
func DefaultPreferences() types.UserPreferences {
	return types.UserPreferences{
		Language:        "Español",
		Theme:           "Fantasía tierra media ambientada en Toledo, España",
		GameStyle:       "Un party game con mecánicas similares a Exploding Kittens, pero con giros innovadores que lo diferencian, sin mencionar gatos ni nada explosivo.",
		NumberOfPlayers: "4-12",
		MaxUniqueCards:  20,
		TargetAudience:  "+18",
		RuleComplexity:  "Medio",
		ContentExclusions: []string{
			"explosivo",
			"gato explosivo",
		},
	}
}

// DefaultPath is the config file used when none is given.
func DefaultPath() string {
	return filepath.Join(".deckcrafter", "config.yaml")
}

// Load loads configuration from a YAML file, then applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// Gemini key (GEMINI_API_KEY wins over GOOGLE_API_KEY)
	for _, name := range []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"} {
		if key := os.Getenv(name); key != "" {
			c.LLM.APIKey = key
			c.LLM.Provider = "gemini"
		}
	}

	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		c.LLM.BaseURL = host
		if c.LLM.APIKey == "" {
			c.LLM.Provider = "ollama"
		}
	}

	if model := os.Getenv("DECKCRAFTER_MODEL"); model != "" {
		c.LLM.Model = model
	}

	if path := os.Getenv("DECKCRAFTER_DB"); path != "" {
		c.Store.Path = path
	}
}

// GetLLMTimeout returns the HTTP timeout of the generation client.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetCallTimeout returns the per-call timeout of the workflow.
func (c *Config) GetCallTimeout() time.Duration {
	d, err := time.ParseDuration(c.Workflow.CallTimeout)
	if err != nil || d <= 0 {
		return 90 * time.Second
	}
	return d
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"gemini", "ollama"}

// ValidStoreDrivers lists the registered database/sql drivers.
var ValidStoreDrivers = []string{"sqlite", "sqlite3"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !contains(ValidProviders, c.LLM.Provider) {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}
	if c.LLM.Provider == "gemini" && c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not configured (set GEMINI_API_KEY or GOOGLE_API_KEY, or use provider ollama)")
	}
	if c.Workflow.MaxRetries < 1 {
		return fmt.Errorf("workflow.max_retries must be at least 1, got %d", c.Workflow.MaxRetries)
	}
	if c.Workflow.DrawPileShare < 0 {
		return fmt.Errorf("workflow.draw_pile_share must not be negative, got %d", c.Workflow.DrawPileShare)
	}
	if !contains(ValidStoreDrivers, c.Store.Driver) {
		return fmt.Errorf("invalid store driver: %s (valid: %v)", c.Store.Driver, ValidStoreDrivers)
	}
	if _, err := types.ParsePlayerRange(c.Preferences.NumberOfPlayers); c.Preferences.NumberOfPlayers != "" && err != nil {
		return fmt.Errorf("preferences.number_of_players: %w", err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
