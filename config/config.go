package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aitelhq/supportbot/internal/knowledge"
)

// Config holds all configuration for the support bot backend.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server and auth settings.
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

func (s ServerConfig) Validate() error {
	if strings.TrimSpace(s.JWTSecret) == "" {
		return fmt.Errorf("server.jwt_secret is required")
	}
	return nil
}

// KnowledgeConfig locates the Q/A corpus file and controls reloads.
type KnowledgeConfig struct {
	Path string `mapstructure:"path"`
	// ReloadCron schedules periodic wholesale reloads of the corpus file.
	// Supports "@hourly", "@daily" and 5-field cron expressions; empty
	// disables scheduled reloads.
	ReloadCron string `mapstructure:"reload_cron"`
}

func (k KnowledgeConfig) Validate() error {
	if strings.TrimSpace(k.Path) == "" {
		return fmt.Errorf("knowledge.path is required")
	}
	return nil
}

// RetrievalConfig exposes the ranking constants as operator-tunable values.
// The defaults are the shipped reference tuning.
type RetrievalConfig struct {
	MinScore          float64 `mapstructure:"min_score"`
	MinOverlapShort   int     `mapstructure:"min_overlap_short"`
	MinOverlapLong    int     `mapstructure:"min_overlap_long"`
	LongQueryTokens   int     `mapstructure:"long_query_tokens"`
	QuestionWeight    float64 `mapstructure:"question_weight"`
	AnswerWeight      float64 `mapstructure:"answer_weight"`
	JaccardWeight     float64 `mapstructure:"jaccard_weight"`
	LevenshteinWeight float64 `mapstructure:"levenshtein_weight"`
	// TopK bounds the number of chunks handed to the generative fallback.
	TopK int `mapstructure:"top_k"`
	// AnswerThreshold is the chat handler's acceptance floor on the winning
	// confidence, applied on top of min_score.
	AnswerThreshold float64 `mapstructure:"answer_threshold"`
}

// Params maps the retrieval section onto engine parameters.
func (r RetrievalConfig) Params() knowledge.Params {
	return knowledge.Params{
		MinScore:          r.MinScore,
		MinOverlapShort:   r.MinOverlapShort,
		MinOverlapLong:    r.MinOverlapLong,
		LongQueryTokens:   r.LongQueryTokens,
		QuestionWeight:    r.QuestionWeight,
		AnswerWeight:      r.AnswerWeight,
		JaccardWeight:     r.JaccardWeight,
		LevenshteinWeight: r.LevenshteinWeight,
	}
}

func (r RetrievalConfig) Validate() error {
	if r.MinScore < 0 || r.MinScore > 1 {
		return fmt.Errorf("retrieval.min_score must be in [0,1]")
	}
	if r.MinOverlapShort < 1 || r.MinOverlapLong < r.MinOverlapShort {
		return fmt.Errorf("retrieval overlap gates must satisfy 1 <= min_overlap_short <= min_overlap_long")
	}
	if r.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be > 0")
	}
	return nil
}

// LLMConfig configures the generative fallback provider.
type LLMConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	CompletionModel string        `mapstructure:"completion_model"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// TelemetryConfig contains telemetry and monitoring settings.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// StorageConfig contains storage and persistence settings.
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains Postgres connection settings.
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds a postgres connection string from the section.
func (p PostgresConfig) DSN() string {
	if strings.TrimSpace(p.URL) != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// RedisConfig contains Redis connection settings. Redis is optional; it is
// only used for the reload scheduler's distributed lock.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether a Redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Host) != "" && strings.TrimSpace(r.Port) != ""
}

// LoadConfig loads config from file, with SUPPORTBOT_* env overrides.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("knowledge.path", "knowledge/english_version.txt")
	viper.SetDefault("retrieval.min_score", 0.24)
	viper.SetDefault("retrieval.min_overlap_short", 2)
	viper.SetDefault("retrieval.min_overlap_long", 3)
	viper.SetDefault("retrieval.long_query_tokens", 6)
	viper.SetDefault("retrieval.question_weight", 0.75)
	viper.SetDefault("retrieval.answer_weight", 0.25)
	viper.SetDefault("retrieval.jaccard_weight", 0.7)
	viper.SetDefault("retrieval.levenshtein_weight", 0.3)
	viper.SetDefault("retrieval.top_k", 5)
	viper.SetDefault("retrieval.answer_threshold", 0.08)
	viper.SetDefault("llm.enabled", true)
	viper.SetDefault("llm.completion_model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0)
	viper.SetDefault("llm.max_tokens", 220)
	viper.SetDefault("llm.timeout", 5*time.Second)
	viper.SetDefault("telemetry.enabled", true)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("SUPPORTBOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.Server.Validate(); err != nil {
		panic(err)
	}
	if err := config.Knowledge.Validate(); err != nil {
		panic(err)
	}
	if err := config.Retrieval.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Postgres.Validate(); err != nil {
		panic(err)
	}
	return &config
}
