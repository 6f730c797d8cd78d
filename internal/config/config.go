package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "OilDashboard/internal/errors"
)

const (
	DefaultBrentURL = "https://raw.githubusercontent.com/datasets/oil-prices/master/data/brent-daily.csv"
	DefaultWTIURL   = "https://raw.githubusercontent.com/datasets/oil-prices/master/data/wti-daily.csv"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr         string        `yaml:"addr" json:"addr" jsonschema:"description=Listen address" validate:"required"`
		ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout" validate:"gte=0"`
		WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout" validate:"gte=0"`
		IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout" validate:"gte=0"`
	} `yaml:"server" json:"server"`
	Sources struct {
		BrentURL    string        `yaml:"brent_url" json:"brent_url" jsonschema:"description=CSV with daily Brent prices" validate:"required,url"`
		WTIURL      string        `yaml:"wti_url" json:"wti_url" jsonschema:"description=CSV with daily WTI prices" validate:"required,url"`
		DateColumn  string        `yaml:"date_column" json:"date_column" validate:"required"`
		PriceColumn string        `yaml:"price_column" json:"price_column" validate:"required"`
		Timeout     time.Duration `yaml:"timeout" json:"timeout" validate:"gte=0"`
		WarmOnStart bool          `yaml:"warm_on_start" json:"warm_on_start" jsonschema:"description=Load the data before serving the first request"`
	} `yaml:"sources" json:"sources"`
	Page struct {
		Title   string `yaml:"title" json:"title" validate:"required"`
		Heading string `yaml:"heading" json:"heading" validate:"required"`
		Layout  string `yaml:"layout" json:"layout" jsonschema:"enum=wide,enum=centered" validate:"oneof=wide centered"`
		Style   struct {
			Background        string `yaml:"background" json:"background" validate:"omitempty,hexcolor"`
			SidebarBackground string `yaml:"sidebar_background" json:"sidebar_background" validate:"omitempty,hexcolor"`
			SidebarText       string `yaml:"sidebar_text" json:"sidebar_text" validate:"omitempty,hexcolor"`
			Text              string `yaml:"text" json:"text" validate:"omitempty,hexcolor"`
		} `yaml:"style" json:"style"`
	} `yaml:"page" json:"page"`
	Charts struct {
		Width  int `yaml:"width" json:"width" validate:"gte=200,lte=4000"`
		Height int `yaml:"height" json:"height" validate:"gte=150,lte=3000"`
	} `yaml:"charts" json:"charts"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron" json:"refresh_cron" jsonschema:"description=Optional cron (with seconds) that reloads the data; empty disables"`
	} `yaml:"schedule" json:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" json:"sqlite_path" jsonschema:"description=Load history database; empty disables"`
	} `yaml:"database" json:"database"`
	Logging struct {
		Level string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	} `yaml:"logging" json:"logging"`
	Proxy string `yaml:"proxy" json:"proxy" validate:"omitempty,url"`
}

// Load reads .env, then the YAML file at path (a missing file is allowed),
// then applies environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DASHBOARD_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("BRENT_URL"); v != "" {
		cfg.Sources.BrentURL = v
	}
	if v := os.Getenv("WTI_URL"); v != "" {
		cfg.Sources.WTIURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REFRESH_CRON"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("WARM_ON_START"); v == "true" {
		cfg.Sources.WarmOnStart = true
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8501"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		// First request may wait on both downloads.
		cfg.Server.WriteTimeout = 90 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Sources.BrentURL == "" {
		cfg.Sources.BrentURL = DefaultBrentURL
	}
	if cfg.Sources.WTIURL == "" {
		cfg.Sources.WTIURL = DefaultWTIURL
	}
	if cfg.Sources.DateColumn == "" {
		cfg.Sources.DateColumn = "Date"
	}
	if cfg.Sources.PriceColumn == "" {
		cfg.Sources.PriceColumn = "Price"
	}
	if cfg.Sources.Timeout == 0 {
		cfg.Sources.Timeout = 30 * time.Second
	}
	if cfg.Page.Title == "" {
		cfg.Page.Title = "Oil Price Dashboard"
	}
	if cfg.Page.Heading == "" {
		cfg.Page.Heading = "Oil Price Visualization Dashboard"
	}
	if cfg.Page.Layout == "" {
		cfg.Page.Layout = "wide"
	}
	if cfg.Page.Style.Background == "" {
		cfg.Page.Style.Background = "#f0f2f6"
	}
	if cfg.Page.Style.SidebarBackground == "" {
		cfg.Page.Style.SidebarBackground = "#1f77b4"
	}
	if cfg.Page.Style.SidebarText == "" {
		cfg.Page.Style.SidebarText = "#ffffff"
	}
	if cfg.Page.Style.Text == "" {
		cfg.Page.Style.Text = "#333333"
	}
	if cfg.Charts.Width == 0 {
		cfg.Charts.Width = 1100
	}
	if cfg.Charts.Height == 0 {
		cfg.Charts.Height = 420
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidConfiguration, "invalid config", err)
	}
	return nil
}

// Schema returns the JSON Schema describing the config file.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		FieldNameTag:               "yaml",
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	s := r.Reflect(&Config{})
	s.Title = "oildash-config"
	s.Description = "Configuration file for the oil price dashboard"
	return s
}
