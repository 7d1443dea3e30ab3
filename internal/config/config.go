package config

import (
	"errors"
	"fmt"
	"os"

	"prebook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Booking    BookingConfig    `yaml:"booking"`
	Kakao      KakaoConfig      `yaml:"kakao"`
	Calendar   CalendarConfig   `yaml:"calendar"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// BookingConfig carries the fixed time grid and request limits. The grid
// is process-wide configuration, not user data.
type BookingConfig struct {
	TimeGrid       []string `yaml:"time_grid"`
	MaxAdvanceDays int      `yaml:"max_advance_days"`
	SlotCacheTTL   int      `yaml:"slot_cache_ttl"` // seconds
}

type KakaoConfig struct {
	AccessToken string `yaml:"access_token"`
	APIBase     string `yaml:"api_base"`
}

type CalendarConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	CalendarID      string `yaml:"calendar_id"`
	Timezone        string `yaml:"timezone"`
}

type TelegramConfig struct {
	BotToken       string `yaml:"bot_token"`
	OperatorChatID int64  `yaml:"operator_chat_id"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env подхватывается, если существует
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.API.Auth.Enabled && len(c.API.Auth.APIKeys) == 0 {
		return errors.New("api auth is enabled but no api keys configured")
	}

	return ValidateTimeGrid(c.Booking.TimeGrid)
}

// ValidateTimeGrid rejects duplicate or empty slot labels.
func ValidateTimeGrid(grid []string) error {
	seen := make(map[string]bool, len(grid))
	for _, label := range grid {
		if label == "" {
			return errors.New("time grid contains an empty slot label")
		}
		if seen[label] {
			return fmt.Errorf("duplicate time grid label: %s", label)
		}
		seen[label] = true
	}
	return nil
}

// ValidateServices rejects catalogs with duplicate codes or durations
// outside the 1-2 hour range.
func ValidateServices(services []models.Service) error {
	codes := make(map[string]bool, len(services))
	for _, svc := range services {
		if svc.Code == "" {
			return fmt.Errorf("service %q has an empty code", svc.Name)
		}
		if codes[svc.Code] {
			return fmt.Errorf("duplicate service code: %s", svc.Code)
		}
		codes[svc.Code] = true
		if svc.DurationHours < 1 || svc.DurationHours > 2 {
			return fmt.Errorf("service %s: duration must be 1 or 2 hours, got %d", svc.Code, svc.DurationHours)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "prebook"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}

	if len(c.Booking.TimeGrid) == 0 {
		c.Booking.TimeGrid = models.DefaultTimeGrid
	}
	if c.Booking.MaxAdvanceDays == 0 {
		c.Booking.MaxAdvanceDays = models.DefaultMaxAdvanceDays
	}
	if c.Booking.SlotCacheTTL == 0 {
		c.Booking.SlotCacheTTL = models.DefaultSlotCacheTTL
	}

	if c.Kakao.APIBase == "" {
		c.Kakao.APIBase = "https://kapi.kakao.com"
	}
	if c.Calendar.Timezone == "" {
		c.Calendar.Timezone = "Asia/Seoul"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
