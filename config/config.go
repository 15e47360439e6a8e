package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the prediction agent system
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig contains LLM provider settings
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // openai, openrouter
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	if strings.TrimSpace(l.Model) == "" {
		return fmt.Errorf("llm.model is required")
	}
	if l.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive")
	}
	return nil
}

// SearchConfig contains web search settings
type SearchConfig struct {
	Provider   string        `mapstructure:"provider"` // serper
	APIKey     string        `mapstructure:"api_key"`
	MaxResults int           `mapstructure:"max_results"`
	Timeout    time.Duration `mapstructure:"timeout"`
	// MaxConcurrency bounds the query fan-out per prediction.
	MaxConcurrency int `mapstructure:"max_concurrency"`
}

// EngineConfig tunes the ensemble and bet-sizing math
type EngineConfig struct {
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	KellyFraction       float64 `mapstructure:"kelly_fraction"`
	MaxBetPercentage    float64 `mapstructure:"max_bet_percentage"`
	LLMWeight           float64 `mapstructure:"llm_weight"`
	StatWeight          float64 `mapstructure:"stat_weight"`
}

func (e EngineConfig) Validate() error {
	if e.ConfidenceThreshold < 0 || e.ConfidenceThreshold > 1 {
		return fmt.Errorf("engine.confidence_threshold must be within [0,1]")
	}
	if e.KellyFraction <= 0 || e.KellyFraction > 1 {
		return fmt.Errorf("engine.kelly_fraction must be within (0,1]")
	}
	if e.MaxBetPercentage <= 0 || e.MaxBetPercentage > 1 {
		return fmt.Errorf("engine.max_bet_percentage must be within (0,1]")
	}
	return nil
}

// RiskConfig contains bankroll risk settings
type RiskConfig struct {
	InitialBankroll float64 `mapstructure:"initial_bankroll"`
	MaxRiskPerBet   float64 `mapstructure:"max_risk_per_bet"`
	MaxDailyLoss    float64 `mapstructure:"max_daily_loss"`
	// ResetSchedule is a cron expression marking the daily PnL boundary.
	ResetSchedule string `mapstructure:"reset_schedule"`
}

func (r RiskConfig) Validate() error {
	if r.InitialBankroll <= 0 {
		return fmt.Errorf("risk.initial_bankroll must be positive")
	}
	if r.MaxRiskPerBet <= 0 || r.MaxRiskPerBet > 1 {
		return fmt.Errorf("risk.max_risk_per_bet must be within (0,1]")
	}
	if r.MaxDailyLoss <= 0 || r.MaxDailyLoss > 1 {
		return fmt.Errorf("risk.max_daily_loss must be within (0,1]")
	}
	return nil
}

// StorageConfig contains storage backends
type StorageConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MetricsPort int  `mapstructure:"metrics_port"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && t.MetricsPort <= 0 {
		return fmt.Errorf("telemetry.metrics_port must be > 0 when telemetry is enabled")
	}
	return nil
}

// LoadConfig loads configuration from a file, falling back to defaults
// plus PREDICTOR_* environment overrides when no file is present.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	setDefaults(v)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		v.AddConfigPath(exeDir)
		v.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("PREDICTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.LLM.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Risk.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Telemetry.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.debug", false)
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.default_timeout", "60s")

	v.SetDefault("server.address", ":8000")

	v.SetDefault("llm.provider", "openrouter")
	v.SetDefault("llm.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("llm.model", "google/gemini-2.0-flash-001")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.timeout", "30s")

	v.SetDefault("search.provider", "serper")
	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.timeout", "15s")
	v.SetDefault("search.max_concurrency", 4)

	v.SetDefault("engine.confidence_threshold", 0.6)
	v.SetDefault("engine.kelly_fraction", 0.25)
	v.SetDefault("engine.max_bet_percentage", 0.05)
	v.SetDefault("engine.llm_weight", 0.6)
	v.SetDefault("engine.stat_weight", 0.4)

	v.SetDefault("risk.initial_bankroll", 10000.0)
	v.SetDefault("risk.max_risk_per_bet", 0.05)
	v.SetDefault("risk.max_daily_loss", 0.10)
	v.SetDefault("risk.reset_schedule", "0 0 * * *")

	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.timeout", "5s")

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.metrics_port", 9090)
}
