package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Quiz     QuizConfig     `mapstructure:"quiz"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig selects and configures the storage backend.
// Driver is "sqlite" or "postgres"; DSN is driver-specific.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// LLMConfig configures the generative content service.
type LLMConfig struct {
	// Provider selects which backend to use.
	// Values: "anthropic", "openai", "gemini", "mock"
	Provider string `mapstructure:"provider"`

	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	AnthropicModel  string `mapstructure:"anthropic_model"`
	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
	OpenAIModel     string `mapstructure:"openai_model"`
	OpenAIBaseURL   string `mapstructure:"openai_base_url"`
	GeminiAPIKey    string `mapstructure:"gemini_api_key"`
	GeminiModel     string `mapstructure:"gemini_model"`

	// QuestionTimeout bounds a single question-generation call.
	// On expiry the provisioner serves a fallback question instead.
	QuestionTimeout time.Duration `mapstructure:"question_timeout"`

	// OntologyTimeout bounds a child-topic generation attempt.
	OntologyTimeout time.Duration `mapstructure:"ontology_timeout"`
}

// QuizConfig tunes session behavior.
type QuizConfig struct {
	// SessionIdleTimeout is how long a session may sit idle before it
	// is treated as abandoned.
	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout"`

	// TreeCacheTTL bounds how stale the topic tree cache may get.
	TreeCacheTTL time.Duration `mapstructure:"tree_cache_ttl"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Mode string `mapstructure:"mode"` // "dev" or "prod"
}

// Load reads configuration from the given path (a directory containing
// socratic.yaml, or a file path) with SOCRATIC_* environment variable
// overrides. A missing config file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SOCRATIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("socratic")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// No config file found: defaults + env vars apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "socratic.db")

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.anthropic_model", "claude-haiku")
	v.SetDefault("llm.openai_model", "gpt-4o-mini")
	v.SetDefault("llm.gemini_model", "gemini-flash")
	v.SetDefault("llm.question_timeout", 4*time.Second)
	v.SetDefault("llm.ontology_timeout", 20*time.Second)

	v.SetDefault("quiz.session_idle_timeout", 30*time.Minute)
	v.SetDefault("quiz.tree_cache_ttl", 5*time.Minute)

	v.SetDefault("log.mode", "dev")
}
