package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	WorkingDir  string            `mapstructure:"working_dir" yaml:"working_dir"`
	Dataset     string            `mapstructure:"dataset" yaml:"dataset"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency" yaml:"concurrency"`
	Download    DownloadConfig    `mapstructure:"download" yaml:"download"`
	Import      ImportConfig      `mapstructure:"import" yaml:"import"`
	Store       StoreConfig       `mapstructure:"store" yaml:"store"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
	API         APIConfig         `mapstructure:"api" yaml:"api"`
}

type ConcurrencyConfig struct {
	Download int `mapstructure:"download" yaml:"download"`
	Extract  int `mapstructure:"extract" yaml:"extract"`
	Import   int `mapstructure:"import" yaml:"import"`
}

type DownloadConfig struct {
	Attempts   int `mapstructure:"attempts" yaml:"attempts"`
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

type ImportConfig struct {
	Raster       bool `mapstructure:"raster" yaml:"raster"`
	SampleWidth  int  `mapstructure:"sample_width" yaml:"sample_width"`
	SampleHeight int  `mapstructure:"sample_height" yaml:"sample_height"`
}

type StoreConfig struct {
	Driver     string `mapstructure:"driver" yaml:"driver"`
	DSN        string `mapstructure:"dsn" yaml:"dsn"`
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

type LogConfig struct {
	Path          string `mapstructure:"path" yaml:"path"`
	Level         string `mapstructure:"level" yaml:"level"`
	IncludeStdout bool   `mapstructure:"include_stdout" yaml:"include_stdout"`
}

type APIConfig struct {
	Port string `mapstructure:"port" yaml:"port"`
}

func Load(path string) (*Config, error) {
	v := viper.New()

	// Set Defaults
	v.SetDefault("working_dir", "./data")
	v.SetDefault("concurrency.download", 4)
	v.SetDefault("concurrency.extract", 4)
	v.SetDefault("concurrency.import", 2)
	v.SetDefault("download.attempts", 3)
	v.SetDefault("download.timeout_sec", 120)
	v.SetDefault("import.raster", false)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "hgtpipe.db")
	v.SetDefault("log.path", "hgtpipe.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.include_stdout", true)
	v.SetDefault("api.port", "8080")

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// Support Environment Variables
	v.SetEnvPrefix("HGTPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.WorkingDir == "" {
		return errors.New("working_dir is required")
	}

	if c.Concurrency.Download <= 0 {
		c.Concurrency.Download = 1
	}
	if c.Concurrency.Extract <= 0 {
		c.Concurrency.Extract = 1
	}
	if c.Concurrency.Import <= 0 {
		c.Concurrency.Import = 1
	}

	if c.Download.Attempts <= 0 {
		c.Download.Attempts = 3
	}

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			c.Store.SQLitePath = "hgtpipe.db"
		}
	case "postgres":
		if c.Store.DSN == "" {
			return errors.New("store.dsn is required when store.driver is postgres")
		}
	default:
		return fmt.Errorf("unknown store driver %q (expected sqlite or postgres)", c.Store.Driver)
	}

	if c.Import.SampleWidth < 0 || c.Import.SampleHeight < 0 {
		return errors.New("import.sample_width and import.sample_height must be >= 0")
	}

	return nil
}
