package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	LogLevel       string        `mapstructure:"log_level"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	Secret         string        `mapstructure:"secret"`
	CookieSecure   bool          `mapstructure:"cookie_secure"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ChatRate       RateConfig    `mapstructure:"chat_rate"`
	Translator     Translator    `mapstructure:"translator"`
}

// RateConfig caps chat frames per user; Limit 0 disables the cap.
type RateConfig struct {
	Limit    int           `mapstructure:"limit"`
	Interval time.Duration `mapstructure:"interval"`
}

type Translator struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("secret", "parley-dev-secret")
	v.SetDefault("cookie_secure", false)
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("chat_rate.limit", 20)
	v.SetDefault("chat_rate.interval", "10s")
	v.SetDefault("translator.api_key", "")
	v.SetDefault("translator.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("translator.model", "llama-3.1-8b-instant")
	v.SetDefault("translator.max_tokens", 512)
	v.SetDefault("translator.temperature", 0.3)
	v.SetDefault("translator.timeout", "15s")
}

// Load reads config/config.<CONFIG_ENV>.yaml on top of the defaults.
// PARLEY_* environment variables override both; GROQ_API_KEY is honoured
// for the translator key.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	setDefaults(v)

	v.SetEnvPrefix("parley")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("translator.api_key", "PARLEY_TRANSLATOR_API_KEY", "GROQ_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Bool("translator", cfg.Translator.APIKey != "").Msg("config ready")
	return &cfg, nil
}
