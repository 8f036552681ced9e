// Package config loads service configuration from an optional YAML file,
// BULKBOT_* environment variables, and built-in defaults, in that priority
// order. All credentials come from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ozzie78066/bulkbot/internal/intake"
	"github.com/ozzie78066/bulkbot/internal/plan"
)

// PlanConfig is the static per-variant configuration: where the form lives
// and which question keys carry which semantic roles.
type PlanConfig struct {
	FormURL string             `mapstructure:"form_url"`
	Schema  intake.FieldSchema `mapstructure:",squash"`
}

// Config is the full service configuration.
type Config struct {
	Server struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"server"`

	Store struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"store"`

	Dedupe struct {
		Window time.Duration `mapstructure:"window"`
	} `mapstructure:"dedupe"`

	OpenAI struct {
		APIKey  string        `mapstructure:"api_key"`
		Model   string        `mapstructure:"model"`
		BaseURL string        `mapstructure:"base_url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"openai"`

	Mail struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		From     string `mapstructure:"from"`
	} `mapstructure:"mail"`

	Plans map[string]PlanConfig `mapstructure:"plans"`

	Logging struct {
		Level      string `mapstructure:"level"`
		Path       string `mapstructure:"path"`
		MaxSize    int    `mapstructure:"max_size"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAge     int    `mapstructure:"max_age"`
	} `mapstructure:"logging"`

	RateLimit struct {
		PerMin int `mapstructure:"per_min"`
	} `mapstructure:"ratelimit"`

	Media struct {
		CacheTTL time.Duration     `mapstructure:"cache_ttl"`
		Videos   map[string]string `mapstructure:"videos"`
	} `mapstructure:"media"`
}

// Load reads configuration. configPath may be empty, in which case only
// defaults and environment variables apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix("BULKBOT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if configPath != "" {
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with. Missing API
// and mail credentials are allowed; those surface at call time.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if c.Dedupe.Window <= 0 {
		return fmt.Errorf("dedupe.window must be positive")
	}
	for _, variant := range plan.All() {
		pc, ok := c.Plans[string(variant)]
		if !ok {
			return fmt.Errorf("plans.%s: missing configuration", variant)
		}
		if pc.FormURL == "" {
			return fmt.Errorf("plans.%s: form_url is required", variant)
		}
		if err := pc.Schema.Validate(variant); err != nil {
			return err
		}
	}
	return nil
}

// PlanFor returns the configuration for a variant. Validate guarantees
// presence for every supported variant.
func (c *Config) PlanFor(v plan.Variant) PlanConfig {
	return c.Plans[string(v)]
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)

	v.SetDefault("store.path", "./tokens.json")
	v.SetDefault("dedupe.window", "15m")

	// Empty defaults keep env-only keys visible to Unmarshal.
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.timeout", "120s")

	v.SetDefault("mail.host", "smtp.gmail.com")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "BulkBot AI <bulkbotplans@gmail.com>")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "logs/bulkbot.log")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 10)
	v.SetDefault("logging.max_age", 30)

	v.SetDefault("ratelimit.per_min", 60)
	v.SetDefault("media.cache_ttl", "1h")

	// Form locations and hidden token fields per variant. Only the 1week
	// and 4week entries point at live forms.
	v.SetDefault("plans.1week.form_url", "https://tally.so/r/wMq9vX")
	v.SetDefault("plans.1week.token_field", "question_xDJv8d_25b0dded-df81-4e6b-870b-9244029e451c")
	v.SetDefault("plans.4week.form_url", "https://tally.so/r/wzRD1g")
	v.SetDefault("plans.4week.token_field", "question_OX4qD8_279a746e-6a87-47a2-af5f-9015896eda25")
	// Placeholders for variants whose forms are not published yet;
	// override plans.<slug>.* before routing real orders at them.
	v.SetDefault("plans.workout.form_url", "https://tally.so/r/nGbqkP")
	v.SetDefault("plans.workout.token_field", "question_Yx2mRd_8f1c5a02-93ab-41de-927f-50b7c3e4aa11")
	v.SetDefault("plans.meals.form_url", "https://tally.so/r/mVjqZL")
	v.SetDefault("plans.meals.token_field", "question_Kd83Jw_c2e6f5b8-1a4d-4c09-9e73-6d2b84f90c35")
	v.SetDefault("plans.trial.form_url", "https://tally.so/r/w4EklN")
	v.SetDefault("plans.trial.token_field", "question_Pz51Qm_7b3d9e14-5c28-46f7-8a60-1f4e92d7bb52")
}
