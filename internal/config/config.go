package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the single immutable configuration value for the process,
// constructed once at startup and passed by parameter into every component.
// No component reads ambient process state directly.
type Config struct {
	StoreBaseURL       string        `mapstructure:"STORE_BASE_URL"`
	SourceDir          string        `mapstructure:"SOURCE_DIR"`
	PageSize           int           `mapstructure:"PAGE_SIZE"`
	VerifyResourceType string        `mapstructure:"VERIFY_RESOURCE_TYPE"`
	MinVerifyCount     int           `mapstructure:"MIN_VERIFY_COUNT"`
	FileLimit          int           `mapstructure:"FILE_LIMIT"`
	MaxPages           int           `mapstructure:"MAX_PAGES"`
	PollInterval       time.Duration `mapstructure:"POLL_INTERVAL"`
	ReachableTimeout   time.Duration `mapstructure:"REACHABLE_TIMEOUT"`
	VerifyTimeout      time.Duration `mapstructure:"VERIFY_TIMEOUT"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	JobTimeout         time.Duration `mapstructure:"JOB_TIMEOUT"`
	Port               string        `mapstructure:"PORT"`
	DBPath             string        `mapstructure:"DB_PATH"`
	ExportDir          string        `mapstructure:"EXPORT_DIR"`
}

// Load reads configuration from the environment, with an optional .env file
// for local development.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("STORE_BASE_URL", "http://localhost:8080/fhir")
	v.SetDefault("SOURCE_DIR", "output/fhir")
	v.SetDefault("PAGE_SIZE", 50)
	v.SetDefault("VERIFY_RESOURCE_TYPE", "Patient")
	v.SetDefault("MIN_VERIFY_COUNT", 1)
	v.SetDefault("FILE_LIMIT", 0)
	v.SetDefault("MAX_PAGES", 1000)
	v.SetDefault("POLL_INTERVAL", "2s")
	v.SetDefault("REACHABLE_TIMEOUT", "60s")
	v.SetDefault("VERIFY_TIMEOUT", "30s")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("JOB_TIMEOUT", "10m")
	v.SetDefault("PORT", "8081")
	v.SetDefault("DB_PATH", "pipeline.db")
	v.SetDefault("EXPORT_DIR", "output/export")

	for _, key := range []string{
		"STORE_BASE_URL", "SOURCE_DIR", "PAGE_SIZE", "VERIFY_RESOURCE_TYPE",
		"MIN_VERIFY_COUNT", "FILE_LIMIT", "MAX_PAGES", "POLL_INTERVAL",
		"REACHABLE_TIMEOUT", "VERIFY_TIMEOUT", "REQUEST_TIMEOUT", "JOB_TIMEOUT",
		"PORT", "DB_PATH", "EXPORT_DIR",
	} {
		v.BindEnv(key)
	}

	// .env is optional
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.StoreBaseURL == "" {
		return Config{}, fmt.Errorf("STORE_BASE_URL is required")
	}
	if cfg.SourceDir == "" {
		return Config{}, fmt.Errorf("SOURCE_DIR is required")
	}
	return cfg, nil
}
