package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var ErrMissingSetting = errors.New("missing required setting")

type BotConfig struct {
	Token         string        `yaml:"token"`
	APIBaseURL    string        `yaml:"api_base_url" validate:"omitempty,url"`
	WebhookURL    string        `yaml:"webhook_url" validate:"omitempty,url"`
	WebhookSecret string        `yaml:"webhook_secret" validate:"omitempty,max=256"`
	PollTimeout   time.Duration `yaml:"poll_timeout" validate:"min=0"`
	Workers       int           `yaml:"workers" validate:"min=1,max=256"`
}

type HTTPConfig struct {
	Port              string `yaml:"port" validate:"required,numeric"`
	SecretKey         string `yaml:"secret_key"`
	AdminPasswordHash string `yaml:"admin_password_hash"`
}

type StorageConfig struct {
	Driver      string `yaml:"driver" validate:"oneof=json sqlite dynamodb"`
	DataDir     string `yaml:"data_dir" validate:"required_if=Driver json"`
	SQLitePath  string `yaml:"sqlite_path" validate:"required_if=Driver sqlite"`
	DynamoTable string `yaml:"dynamodb_table" validate:"required_if=Driver dynamodb"`
	AWSRegion   string `yaml:"aws_region"`
}

type GeneratorConfig struct {
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model" validate:"required"`
	Endpoint  string        `yaml:"endpoint" validate:"omitempty,url"`
	MaxTokens int           `yaml:"max_tokens" validate:"min=1,max=8192"`
	Timeout   time.Duration `yaml:"timeout" validate:"min=0"`
	Attempts  int           `yaml:"attempts" validate:"min=1,max=10"`
}

type NotificationsConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Hour     int           `yaml:"hour" validate:"min=0,max=23"`
	Interval time.Duration `yaml:"interval" validate:"min=0"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

type Config struct {
	Timezone      string              `yaml:"timezone" validate:"required"`
	Language      string              `yaml:"language" validate:"required"`
	Bot           BotConfig           `yaml:"bot"`
	HTTP          HTTPConfig          `yaml:"http"`
	Storage       StorageConfig       `yaml:"storage"`
	Generator     GeneratorConfig     `yaml:"generator"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Log           LogConfig           `yaml:"log"`
}

func Default() Config {
	return Config{
		Timezone: "UTC",
		Language: "ru",
		Bot: BotConfig{
			PollTimeout: 50 * time.Second,
			Workers:     8,
		},
		HTTP: HTTPConfig{
			Port: "8080",
		},
		Storage: StorageConfig{
			Driver:     "json",
			DataDir:    "data",
			SQLitePath: filepath.Join("data", "prostranstvo.db"),
		},
		Generator: GeneratorConfig{
			Model:     "claude-sonnet-4-5",
			MaxTokens: 1024,
			Timeout:   40 * time.Second,
			Attempts:  3,
		},
		Notifications: NotificationsConfig{
			Enabled:  true,
			Hour:     9,
			Interval: 10 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (or CONFIG_FILE), then the environment. A .env file in the working
// directory is read first and never overrides variables already set.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path == "" {
		path = strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Timezone, "TZ")
	setString(&cfg.Language, "DEFAULT_LANGUAGE")

	setString(&cfg.Bot.Token, "TELEGRAM_BOT_TOKEN")
	setString(&cfg.Bot.APIBaseURL, "TELEGRAM_API_URL")
	setString(&cfg.Bot.WebhookURL, "WEBHOOK_URL")
	setString(&cfg.Bot.WebhookSecret, "WEBHOOK_SECRET")

	setString(&cfg.HTTP.Port, "PORT")
	setString(&cfg.HTTP.SecretKey, "SECRET_KEY")
	setString(&cfg.HTTP.AdminPasswordHash, "ADMIN_PASSWORD_HASH")

	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setString(&cfg.Storage.DataDir, "DATA_DIR")
	setString(&cfg.Storage.SQLitePath, "DB_PATH")
	setString(&cfg.Storage.DynamoTable, "DYNAMODB_TABLE")
	setString(&cfg.Storage.AWSRegion, "AWS_REGION")

	setString(&cfg.Generator.APIKey, "ANTHROPIC_API_KEY")
	setString(&cfg.Generator.Model, "ANTHROPIC_MODEL")
	setString(&cfg.Generator.Endpoint, "ANTHROPIC_ENDPOINT")

	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")

	var errs []error
	errs = append(errs,
		setInt(&cfg.Bot.Workers, "BOT_WORKERS"),
		setDuration(&cfg.Bot.PollTimeout, "POLL_TIMEOUT"),
		setInt(&cfg.Generator.MaxTokens, "ANTHROPIC_MAX_TOKENS"),
		setDuration(&cfg.Generator.Timeout, "ANTHROPIC_TIMEOUT"),
		setInt(&cfg.Generator.Attempts, "GENERATION_ATTEMPTS"),
		setBool(&cfg.Notifications.Enabled, "NOTIFICATIONS_ENABLED"),
		setInt(&cfg.Notifications.Hour, "NOTIFICATION_HOUR"),
		setDuration(&cfg.Notifications.Interval, "NOTIFICATION_INTERVAL"),
	)
	return errors.Join(errs...)
}

func (cfg Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid configuration: timezone %q: %w", cfg.Timezone, err)
	}
	return nil
}

// RequireServe checks the settings needed to run the bot itself.
func (cfg Config) RequireServe() error {
	var missing []string
	if strings.TrimSpace(cfg.Bot.Token) == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if strings.TrimSpace(cfg.Generator.APIKey) == "" {
		missing = append(missing, "ANTHROPIC_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
	}
	return nil
}

func (cfg Config) Location() *time.Location {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return time.UTC
	}
	return location
}

func setString(target *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*target = value
	}
}

func setInt(target *int, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*target = parsed
	return nil
}

func setBool(target *bool, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*target = parsed
	return nil
}

func setDuration(target *time.Duration, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*target = parsed
	return nil
}
