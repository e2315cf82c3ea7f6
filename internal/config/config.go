package config

import (
	"errors"
	"fmt"
	"io/fs"
	"momentum/internal/logger"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Data source kinds.
const (
	SourceCSV      = "csv"
	SourceParquet  = "parquet"
	SourcePostgres = "postgres"
)

type Config struct {
	Data     DataConfig     `yaml:"data"`
	Strategy StrategyConfig `yaml:"strategy"`
	Report   ReportConfig   `yaml:"report"`
	Log      logger.Config  `yaml:"log"`
}

type DataConfig struct {
	Source      string `yaml:"source" default:"csv" validate:"oneof=csv parquet postgres"`
	CSVPath     string `yaml:"csv_path" default:"tech_stocks_data.csv" validate:"required_if=Source csv"`
	ParquetDir  string `yaml:"parquet_dir" default:"data/bars" validate:"required_if=Source parquet"`
	DatabaseURL string `yaml:"database_url" validate:"required_if=Source postgres"`
}

type StrategyConfig struct {
	ShortWindow       int     `yaml:"short_window" default:"50" validate:"gt=0"`
	LongWindow        int     `yaml:"long_window" default:"200" validate:"gtfield=ShortWindow"`
	SelectionFraction float64 `yaml:"selection_fraction" default:"0.1" validate:"gt=0,lte=1"`
	Workers           int     `yaml:"workers" validate:"gte=0"` // 0 means GOMAXPROCS
}

type ReportConfig struct {
	TradingDays   int    `yaml:"trading_days" default:"252" validate:"gt=0"`
	ShowProgress  bool   `yaml:"show_progress" default:"true"`
	ReturnsCSV    string `yaml:"returns_csv"`
	RebalancesCSV string `yaml:"rebalances_csv"`
}

var validate = validator.New()

// Default returns the configuration used when no file is present.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	return &c, nil
}

// Load reads a YAML configuration file on top of the defaults, applies
// environment overrides and validates the result. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BACKTESTER_DATA_SOURCE"); v != "" {
		c.Data.Source = v
	}
	if v := os.Getenv("BACKTESTER_CSV_PATH"); v != "" {
		c.Data.CSVPath = v
	}
	if v := os.Getenv("BACKTESTER_PARQUET_DIR"); v != "" {
		c.Data.ParquetDir = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Data.DatabaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	return validate.Struct(c)
}
