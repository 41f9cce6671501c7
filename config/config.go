package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Forecast ForecastConfig
	Log      LogConfig
}

type ServerConfig struct {
	Host string `env:"NESTNAV_HOST" envDefault:"127.0.0.1"`
	Port int    `env:"NESTNAV_PORT" envDefault:"5001"`

	// Origins allowed by CORS, comma separated
	AllowedOrigins []string `env:"NESTNAV_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Requests per second across all clients, 0 disables the limiter
	RateLimit float64 `env:"NESTNAV_RATE_LIMIT" envDefault:"0"`
	RateBurst int     `env:"NESTNAV_RATE_BURST" envDefault:"20"`

	ShutdownTimeout time.Duration `env:"NESTNAV_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type DataConfig struct {
	// csv or sqlite
	Backend string `env:"NESTNAV_BACKEND" envDefault:"csv"`

	Dir          string `env:"NESTNAV_DATA_DIR" envDefault:"public/data"`
	PriceFile    string `env:"NESTNAV_PRICE_FILE" envDefault:"price_history.csv"`
	PlotsFile    string `env:"NESTNAV_PLOTS_FILE" envDefault:"plots_history.csv"`
	RentalsFile  string `env:"NESTNAV_RENTALS_FILE" envDefault:"rentals_history.csv"`
	MetadataFile string `env:"NESTNAV_METADATA_FILE" envDefault:"updated_dataset.csv"`
	SQLitePath   string `env:"NESTNAV_SQLITE_PATH" envDefault:"nestnav.db"`

	// Optional area to zone mapping, empty disables zones
	ZonesFile string `env:"NESTNAV_ZONES_FILE"`

	// Write retries for the sqlite backend
	WriteBatchSize  int           `env:"NESTNAV_WRITE_BATCH_SIZE" envDefault:"500"`
	WriteMaxRetries int           `env:"NESTNAV_WRITE_MAX_RETRIES" envDefault:"3"`
	WriteRetryDelay time.Duration `env:"NESTNAV_WRITE_RETRY_DELAY" envDefault:"1s"`
}

type ForecastConfig struct {
	// Coverage of the reported prediction interval
	IntervalWidth float64 `env:"NESTNAV_INTERVAL_WIDTH" envDefault:"0.8"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	// json or text
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// LoadConfig reads an optional .env file and then the environment. Variables
// already set in the environment take precedence over the file.
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Data.Backend {
	case BackendCSV, BackendSQLite:
	default:
		return fmt.Errorf("unsupported backend %q", c.Data.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if w := c.Forecast.IntervalWidth; w <= 0 || w >= 1 {
		return fmt.Errorf("interval width must be in (0, 1), got %v", w)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Path resolves a data file name against Dir. Absolute names are kept.
func (d DataConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.Dir, name)
}
