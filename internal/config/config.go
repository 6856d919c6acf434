package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr          string        `yaml:"listen_addr"`
	Port                string        `yaml:"port"`
	DatabasePath        string        `yaml:"database_path"`
	SessionSecret       string        `yaml:"session_secret"`
	GinMode             string        `yaml:"gin_mode"`
	LogLevel            string        `yaml:"log_level"`
	DefaultUserEmail    string        `yaml:"default_user_email"`
	DefaultUserPassword string        `yaml:"default_user_password"`
	FitbitAPIBaseURL    string        `yaml:"fitbit_api_base_url"`
	FitbitTimeout       time.Duration `yaml:"fitbit_timeout"`
	FitbitMaxRetries    int           `yaml:"fitbit_max_retries"`
	ValidationMode      string        `yaml:"import_validation_mode"`
	StrictDates         bool          `yaml:"import_strict_dates"`
	WaterGoalML         float64       `yaml:"water_goal_ml"`
}

// Defaults 返回未配置时使用的默认值。
func Defaults() AppConfig {
	return AppConfig{
		Port:             "8080",
		DatabasePath:     "fitdash.db",
		SessionSecret:    "fitdash-dev-secret",
		GinMode:          "release",
		LogLevel:         "info",
		DefaultUserEmail: "user@app.local",
		FitbitAPIBaseURL: "https://api.fitbit.com",
		FitbitTimeout:    15 * time.Second,
		FitbitMaxRetries: 3,
		ValidationMode:   "fail_fast",
		WaterGoalML:      2500,
	}
}

// Load 依次应用默认值、CONFIG_FILE 指定的 YAML 文件和环境变量，后者优先级最高。
func Load() (AppConfig, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return AppConfig{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return AppConfig{}, err
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fmt.Sprintf(":%s", cfg.Port)
	}

	return cfg, nil
}

func loadFile(path string, cfg *AppConfig) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *AppConfig) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.DatabasePath, "DATABASE_PATH")
	setString(&cfg.SessionSecret, "SESSION_SECRET")
	setString(&cfg.GinMode, "GIN_MODE")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.DefaultUserEmail, "DEFAULT_USER_EMAIL")
	setString(&cfg.DefaultUserPassword, "DEFAULT_USER_PASSWORD")
	setString(&cfg.FitbitAPIBaseURL, "FITBIT_API_BASE_URL")
	setString(&cfg.ValidationMode, "IMPORT_VALIDATION_MODE")

	var errs []error
	if raw := env("FITBIT_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("FITBIT_TIMEOUT: %w", err))
		} else {
			cfg.FitbitTimeout = timeout
		}
	}
	if raw := env("FITBIT_MAX_RETRIES"); raw != "" {
		retries, err := strconv.Atoi(raw)
		if err != nil || retries < 0 {
			errs = append(errs, fmt.Errorf("FITBIT_MAX_RETRIES: invalid value %q", raw))
		} else {
			cfg.FitbitMaxRetries = retries
		}
	}
	if raw := env("IMPORT_STRICT_DATES"); raw != "" {
		strict, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("IMPORT_STRICT_DATES: %w", err))
		} else {
			cfg.StrictDates = strict
		}
	}
	if raw := env("WATER_GOAL_ML"); raw != "" {
		goal, err := strconv.ParseFloat(raw, 64)
		if err != nil || goal <= 0 {
			errs = append(errs, fmt.Errorf("WATER_GOAL_ML: invalid value %q", raw))
		} else {
			cfg.WaterGoalML = goal
		}
	}

	return errors.Join(errs...)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, key string) {
	if value := env(key); value != "" {
		*dst = value
	}
}
