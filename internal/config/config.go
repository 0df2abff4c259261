// Package config loads litbot settings from a YAML file, a .env file and
// the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "litbot"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
)

// Config is the full litbot configuration.
type Config struct {
	ListenAddr string        `yaml:"listen_addr" validate:"required"`
	Slack      SlackConfig   `yaml:"slack"`
	LLM        LLMConfig     `yaml:"llm"`
	Search     SearchConfig  `yaml:"search"`
	Storage    StorageConfig `yaml:"storage"`
	Log        LogConfig     `yaml:"log"`
}

// SlackConfig holds the bot credentials. Only `serve` needs them.
type SlackConfig struct {
	BotToken      string `yaml:"bot_token,omitempty"`
	SigningSecret string `yaml:"signing_secret,omitempty"`
}

// LLMConfig selects the chat-completion backend.
type LLMConfig struct {
	APIKey  string        `yaml:"api_key,omitempty"`
	BaseURL string        `yaml:"base_url" validate:"omitempty,url"`
	Model   string        `yaml:"model" validate:"required"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// SearchConfig configures the paper search providers.
type SearchConfig struct {
	S2APIKey   string        `yaml:"s2_api_key,omitempty"`
	Mailto     string        `yaml:"mailto,omitempty" validate:"omitempty,email"`
	MaxResults int           `yaml:"max_results" validate:"gte=1,lte=100"`
	Timeout    time.Duration `yaml:"timeout" validate:"gt=0"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend     string `yaml:"backend" validate:"oneof=json sqlite badger postgres memory"`
	Dir         string `yaml:"dir"`
	PostgresURL string `yaml:"postgres_url,omitempty" validate:"required_if=Backend postgres"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// ErrMissingCredential is returned by the Require* checks.
var ErrMissingCredential = errors.New("missing credential")

var validate = validator.New()

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr: ":3000",
		LLM: LLMConfig{
			BaseURL: "https://api.mistral.ai/v1",
			Model:   "mistral-large-latest",
			Timeout: 60 * time.Second,
		},
		Search: SearchConfig{
			MaxResults: 3,
			Timeout:    10 * time.Second,
		},
		Storage: StorageConfig{
			Backend: "json",
			Dir:     DefaultDataDir(),
		},
		Log: LogConfig{Level: "info"},
	}
}

// Path returns the default config file path.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/litbot/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// DefaultDataDir is where file-based backends keep their data.
// Respects XDG_DATA_HOME, defaults to ~/.local/share/litbot.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "data"
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, ConfigDir)
}

// Load reads the config file at path (Path() when empty), loads .env from
// the working directory, then applies environment overrides and validates.
// A missing config file is not an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = Path()
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case os.IsNotExist(err) && !explicit:
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// A missing .env is normal; the process environment still applies.
	_ = godotenv.Load()

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.Storage.Dir = ExpandPath(cfg.Storage.Dir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// RequireLLM reports whether an LLM API key is configured.
func (c *Config) RequireLLM() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("%w: set llm.api_key, LLM_API_KEY or MISTRAL_API_KEY", ErrMissingCredential)
	}
	return nil
}

// RequireSlack reports whether both Slack credentials are configured.
func (c *Config) RequireSlack() error {
	var missing []string
	if c.Slack.BotToken == "" {
		missing = append(missing, "SLACK_BOT_TOKEN")
	}
	if c.Slack.SigningSecret == "" {
		missing = append(missing, "SLACK_SIGNING_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredential, strings.Join(missing, ", "))
	}
	return nil
}

type lookupFunc func(string) (string, bool)

// applyEnv overrides file values with environment variables. The first
// variable set in each list wins.
func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(dst *string, names ...string) {
		for _, n := range names {
			if v, ok := lookup(n); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	str(&c.ListenAddr, "LITBOT_LISTEN_ADDR")
	str(&c.Slack.BotToken, "SLACK_BOT_TOKEN")
	str(&c.Slack.SigningSecret, "SLACK_SIGNING_SECRET")
	str(&c.LLM.APIKey, "LLM_API_KEY", "MISTRAL_API_KEY")
	str(&c.LLM.BaseURL, "LITBOT_LLM_BASE_URL")
	str(&c.LLM.Model, "LITBOT_LLM_MODEL")
	str(&c.Search.S2APIKey, "S2_API_KEY")
	str(&c.Search.Mailto, "LITBOT_OPENALEX_MAILTO")
	str(&c.Storage.Backend, "LITBOT_STORAGE_BACKEND")
	str(&c.Storage.Dir, "LITBOT_DATA_DIR")
	str(&c.Storage.PostgresURL, "LITBOT_POSTGRES_URL", "DATABASE_URL")
	str(&c.Log.Level, "LITBOT_LOG_LEVEL")

	if v, ok := lookup("LITBOT_MAX_RESULTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LITBOT_MAX_RESULTS: %w", err)
		}
		c.Search.MaxResults = n
	}
	if v, ok := lookup("LITBOT_LOG_DEVELOPMENT"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LITBOT_LOG_DEVELOPMENT: %w", err)
		}
		c.Log.Development = b
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
