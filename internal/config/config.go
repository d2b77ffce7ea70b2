package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/orbitlytics/neocollector/internal/collector"
	"github.com/orbitlytics/neocollector/internal/feed"
	"github.com/orbitlytics/neocollector/internal/logging"
)

type Global struct {
	Logger logging.Config `yaml:"logger"`
}

type Feed struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	WindowDays int    `yaml:"window_days"`
	// Pace is a Go duration string, e.g. "5s".
	Pace string `yaml:"pace"`
}

func (f Feed) PaceDuration() (time.Duration, error) {
	if f.Pace == "" {
		return collector.DefaultPace, nil
	}
	return time.ParseDuration(f.Pace)
}

type Database struct {
	ConnectionString string `yaml:"connection_string"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type LocalRepository struct {
	Path string `yaml:"path"`
}

type S3Repository struct {
	Bucket         string `yaml:"bucket"`
	Region         string `yaml:"region"`
	Prefix         string `yaml:"prefix"`
	Endpoint       string `yaml:"endpoint"`
	ForcePathStyle bool   `yaml:"force_path_style"`
}

type Repository struct {
	Type  string          `yaml:"type"`
	Local LocalRepository `yaml:"local"`
	S3    S3Repository    `yaml:"s3"`
}

type Snapshot struct {
	Repository          Repository `yaml:"repository"`
	BatchSizeNumRecords int        `yaml:"batch_size_num_records"`
}

type CollectorConfig struct {
	StartDate string   `yaml:"start_date"`
	Feed      Feed     `yaml:"feed"`
	Database  Database `yaml:"database"`
	Server    Server   `yaml:"server"`
	Snapshot  Snapshot `yaml:"snapshot"`
}

type Config struct {
	Global    Global          `yaml:"global"`
	Collector CollectorConfig `yaml:"collector"`
}

// NewFromFile loads the YAML config and applies environment overrides for
// the secrets: NEO_FEED_API_KEY and NEO_DATABASE_URL.
func NewFromFile(fpath string) (*Config, error) {
	bs, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}

	c := Config{
		Collector: CollectorConfig{
			StartDate: collector.DefaultStartDate,
			Feed: Feed{
				WindowDays: feed.WindowDays,
			},
		},
	}
	if err := yaml.Unmarshal(bs, &c); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("NEO")
	if err := v.BindEnv("feed_api_key"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("database_url"); err != nil {
		return nil, err
	}
	if key := v.GetString("feed_api_key"); key != "" {
		c.Collector.Feed.APIKey = key
	}
	if dsn := v.GetString("database_url"); dsn != "" {
		c.Collector.Database.ConnectionString = dsn
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (c *Config) validate() error {
	if c.Collector.Feed.APIKey == "" {
		return fmt.Errorf("config: feed api_key is required (or set NEO_FEED_API_KEY)")
	}
	if c.Collector.Database.ConnectionString == "" {
		return fmt.Errorf("config: database connection_string is required (or set NEO_DATABASE_URL)")
	}
	if !collector.ValidDateFormat(c.Collector.StartDate) {
		return fmt.Errorf("config: start_date %q is not of the format YYYY-MM-DD", c.Collector.StartDate)
	}
	if _, err := c.Collector.Feed.PaceDuration(); err != nil {
		return fmt.Errorf("config: pace: %w", err)
	}
	return nil
}
