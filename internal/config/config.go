// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all pipeline configuration knobs loaded via Viper.
type Config struct {
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Warehouse WarehouseConfig `mapstructure:"warehouse"`
	DB        DBConfig        `mapstructure:"db"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ScrapeConfig governs the search query and the pagination loop.
type ScrapeConfig struct {
	BaseURL          string `mapstructure:"base_url"`
	Query            string `mapstructure:"query"`
	Location         string `mapstructure:"location"`
	CutoffDate       string `mapstructure:"cutoff_date"`
	MaxPages         int    `mapstructure:"max_pages"`
	FetchMode        string `mapstructure:"fetch_mode"`
	UserAgent        string `mapstructure:"user_agent"`
	NavTimeoutSec    int    `mapstructure:"nav_timeout_seconds"`
	RequestTimeout   int    `mapstructure:"request_timeout_seconds"`
	PageDelaySeconds int    `mapstructure:"page_delay_seconds"`
}

// FilterConfig controls post-scrape title filtering.
type FilterConfig struct {
	ITOnly   bool     `mapstructure:"it_only"`
	Keywords []string `mapstructure:"keywords"`
}

// StorageConfig sets the blob storage destination for the run artifact.
type StorageConfig struct {
	Provider string `mapstructure:"provider"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
}

// WarehouseConfig identifies the BigQuery destination table.
type WarehouseConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	DatasetID string `mapstructure:"dataset_id"`
	TableID   string `mapstructure:"table_id"`
}

// DBConfig controls the optional Postgres run ledger.
type DBConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// PubSubConfig holds metadata for run-completion notifications.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// MonitorConfig toggles the in-run HTTP monitor server.
type MonitorConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Fetch modes accepted by scrape.fetch_mode.
const (
	FetchModeHeadless = "headless"
	FetchModeStatic   = "static"
	FetchModeAuto     = "auto"
)

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("JOBSCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scrape.base_url", "https://www.indeed.com")
	v.SetDefault("scrape.query", "IT")
	v.SetDefault("scrape.location", "")
	v.SetDefault("scrape.max_pages", 40)
	v.SetDefault("scrape.fetch_mode", FetchModeHeadless)
	v.SetDefault("scrape.user_agent", "jobsignal-scraper/1.0 (+https://github.com/jobsignal/jobscraper)")
	v.SetDefault("scrape.nav_timeout_seconds", 25)
	v.SetDefault("scrape.request_timeout_seconds", 15)
	v.SetDefault("scrape.page_delay_seconds", 2)
	v.SetDefault("filter.it_only", true)
	v.SetDefault("filter.keywords", []string{
		"software", "developer", "engineer", "data", "analyst",
		"network", "security", "system", "admin", "cloud",
	})
	v.SetDefault("storage.provider", "gcs")
	v.SetDefault("storage.prefix", "jobs")
	v.SetDefault("warehouse.provider", "bigquery")
	v.SetDefault("warehouse.table_id", "indeed_it_jobs")
	v.SetDefault("db.enabled", false)
	v.SetDefault("pubsub.enabled", false)
	v.SetDefault("monitor.enabled", false)
	v.SetDefault("monitor.port", 8080)
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Scrape.Query == "" {
		return fmt.Errorf("scrape.query must be set")
	}
	if c.Scrape.BaseURL == "" {
		return fmt.Errorf("scrape.base_url must be set")
	}
	if c.Scrape.MaxPages <= 0 {
		return fmt.Errorf("scrape.max_pages must be > 0")
	}
	if c.Scrape.CutoffDate != "" {
		if _, err := time.Parse("2006-01-02", c.Scrape.CutoffDate); err != nil {
			return fmt.Errorf("scrape.cutoff_date must be YYYY-MM-DD: %w", err)
		}
	}
	switch c.Scrape.FetchMode {
	case FetchModeHeadless, FetchModeStatic, FetchModeAuto:
	default:
		return fmt.Errorf("scrape.fetch_mode must be one of headless, static, auto")
	}
	if c.Storage.Provider == "gcs" && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket must be set when storage.provider is gcs")
	}
	if c.Warehouse.Provider == "bigquery" {
		if c.Warehouse.ProjectID == "" || c.Warehouse.DatasetID == "" || c.Warehouse.TableID == "" {
			return fmt.Errorf("warehouse.project_id, dataset_id and table_id must be set when warehouse.provider is bigquery")
		}
	}
	if c.DB.Enabled && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn must be set when db.enabled is true")
	}
	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.TopicID == "") {
		return fmt.Errorf("pubsub.project_id and topic_id must be set when pubsub.enabled is true")
	}
	if c.Monitor.Enabled && c.Monitor.Port <= 0 {
		return fmt.Errorf("monitor.port must be > 0 when monitor is enabled")
	}
	return nil
}

// Cutoff parses the configured cutoff date; the zero time disables rule (b).
func (c Config) Cutoff() time.Time {
	if c.Scrape.CutoffDate == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", c.Scrape.CutoffDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// NavTimeout converts the headless navigation budget into a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Scrape.NavTimeoutSec) * time.Second
}

// RequestTimeout converts the static fetch budget into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Scrape.RequestTimeout) * time.Second
}

// PageDelay converts the inter-page pacing into a duration.
func (c Config) PageDelay() time.Duration {
	return time.Duration(c.Scrape.PageDelaySeconds) * time.Second
}
