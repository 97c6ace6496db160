package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"deskhive/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	API        APIConfig        `yaml:"api"`
	Booking    BookingConfig    `yaml:"booking"`
	Payment    PaymentConfig    `yaml:"payment"`
	Spaces     []models.Space   `yaml:"spaces"`
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
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
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
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type BookingConfig struct {
	MaxBookingDays       int           `yaml:"max_booking_days"`
	AvailabilityCacheTTL time.Duration `yaml:"availability_cache_ttl"`
	HubIdleTimeout       time.Duration `yaml:"hub_idle_timeout"`
}

type PaymentConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

// Load reads the YAML config, expanding ${ENV} references. A .env file is
// loaded first when present.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

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

	if c.Redis.Enabled && c.Redis.Address == "" {
		return errors.New("redis.address is required when redis is enabled")
	}

	return ValidateSpaces(c.Spaces)
}

// ValidateSpaces rejects catalogs with duplicate ids, non-positive
// capacities, or unknown pricing types.
func ValidateSpaces(spaces []models.Space) error {
	spaceIDs := make(map[int64]bool)
	for _, space := range spaces {
		if space.ID == 0 {
			return fmt.Errorf("space %q has invalid ID 0", space.Name)
		}
		if spaceIDs[space.ID] {
			return fmt.Errorf("duplicate space ID found: %d", space.ID)
		}
		spaceIDs[space.ID] = true

		if space.Capacity <= 0 {
			return fmt.Errorf("space %q must have positive capacity", space.Name)
		}

		valid := false
		for _, pt := range models.ValidPricingTypes {
			if space.PricingType == pt {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("space %q has unknown pricing type %q", space.Name, space.PricingType)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}

	if c.Booking.MaxBookingDays == 0 {
		c.Booking.MaxBookingDays = 365
	}
	if c.Booking.AvailabilityCacheTTL == 0 {
		c.Booking.AvailabilityCacheTTL = models.AvailabilityCacheTTL
	}
	if c.Booking.HubIdleTimeout == 0 {
		c.Booking.HubIdleTimeout = models.HubIdleTimeout
	}

	if c.Payment.Timeout == 0 {
		c.Payment.Timeout = 10 * time.Second
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
