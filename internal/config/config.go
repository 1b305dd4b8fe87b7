package config

import (
	"errors"
	"fmt"
	"os"

	"maitred/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App         AppConfig           `yaml:"app"`
	Database    DatabaseConfig      `yaml:"database"`
	Redis       RedisConfig         `yaml:"redis"`
	Backup      BackupConfig        `yaml:"backup"`
	Monitoring  MonitoringConfig    `yaml:"monitoring"`
	Logging     LoggingConfig       `yaml:"logging"`
	API         APIConfig           `yaml:"api"`
	Telegram    TelegramConfig      `yaml:"telegram"`
	Google      GoogleConfig        `yaml:"google"`
	Exports     ExportConfig        `yaml:"exports"`
	Restaurants []models.Restaurant `yaml:"restaurants"`
	Tables      []TableSeed         `yaml:"tables"`
}

// TableSeed is one table row from the seed file. IsActive is a pointer so an
// omitted field defaults to active while an explicit false survives the load.
type TableSeed struct {
	ID           int64  `yaml:"id"`
	RestaurantID int64  `yaml:"restaurant_id"`
	Number       int    `yaml:"number"`
	Capacity     int    `yaml:"capacity"`
	Section      string `yaml:"section"`
	IsActive     *bool  `yaml:"is_active"`
	SortOrder    int64  `yaml:"sort_order"`
}

// Table converts the seed row to a model row.
func (t TableSeed) Table() models.Table {
	table := models.Table{
		ID:           t.ID,
		RestaurantID: t.RestaurantID,
		Number:       t.Number,
		Capacity:     t.Capacity,
		Section:      t.Section,
		IsActive:     t.IsActive == nil || *t.IsActive,
		SortOrder:    t.SortOrder,
	}
	if table.SortOrder == 0 {
		table.SortOrder = int64(table.Number)
	}
	return table
}

// TableModels returns the seed tables ready for the store.
func (c *Config) TableModels() []models.Table {
	tables := make([]models.Table, len(c.Tables))
	for i, seed := range c.Tables {
		tables[i] = seed.Table()
	}
	return tables
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
	PrometheusEnabled bool   `yaml:"prometheus_enabled"`
	PrometheusPort    int    `yaml:"prometheus_port"`
	LogLevel          string `yaml:"log_level"`
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

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
}

type GoogleConfig struct {
	GoogleCredentialsFile string `yaml:"credentials_file"`
	BookingSpreadSheetID  string `yaml:"bookings_spreadsheet_id"`
	ScheduleSpreadSheetID string `yaml:"schedule_spreadsheet_id"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; environment variables referenced in the yaml are
	// expanded before parsing.
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

	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return errors.New("telegram bot token is required when telegram is enabled")
	}

	if len(c.Restaurants) == 0 {
		return errors.New("at least one restaurant is required")
	}

	return ValidateRestaurants(c.Restaurants, c.TableModels())
}

// ValidateRestaurants rejects duplicate restaurant IDs and tables that point
// at an unknown restaurant.
func ValidateRestaurants(restaurants []models.Restaurant, tables []models.Table) error {
	ids := make(map[int64]bool)
	for _, r := range restaurants {
		if r.ID == 0 {
			return fmt.Errorf("restaurant '%s' has invalid ID 0", r.Name)
		}
		if ids[r.ID] {
			return fmt.Errorf("duplicate restaurant ID found: %d", r.ID)
		}
		ids[r.ID] = true
	}

	seen := make(map[string]bool)
	for _, t := range tables {
		if !ids[t.RestaurantID] {
			return fmt.Errorf("table %d references unknown restaurant %d", t.Number, t.RestaurantID)
		}
		key := fmt.Sprintf("%d/%d", t.RestaurantID, t.Number)
		if seen[key] {
			return fmt.Errorf("duplicate table number %d at restaurant %d", t.Number, t.RestaurantID)
		}
		seen[key] = true
		if t.Capacity <= 0 {
			return fmt.Errorf("table %d at restaurant %d has invalid capacity %d", t.Number, t.RestaurantID, t.Capacity)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
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
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}

	for i := range c.Restaurants {
		r := &c.Restaurants[i]
		if r.OpensAt == "" {
			r.OpensAt = "10:00"
		}
		if r.ClosesAt == "" {
			r.ClosesAt = "23:00"
		}
		if r.DefaultTurnTimeMinutes == 0 {
			r.DefaultTurnTimeMinutes = models.DefaultTurnTimeMinutes
		}
		if r.BookingWindowDays == 0 {
			r.BookingWindowDays = models.DefaultBookingWindowDays
		}
	}
}
