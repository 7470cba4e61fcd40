// Package config loads the keysetd configuration from a file, the
// environment and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Alp4ka/keyset"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. KEYSET_STORE_DSN.
const EnvPrefix = "KEYSET"

// Config represents the configuration of keysetd.
type Config struct {
	HTTP   HTTP
	Store  Store
	Paging Paging
	Log    Log
}

type HTTP struct {
	Addr      string
	StaticDir string
}

// Store selects the record store. Driver is one of sqlite, postgres, mysql
// or mongo; Database and Collection are used by mongo only.
type Store struct {
	Driver     string
	DSN        string
	Database   string
	Collection string
}

type Paging struct {
	PageSize     int
	MaxPageSize  int
	QueryTimeout time.Duration
}

type Log struct {
	Level  string
	Format string
}

var _drivers = []string{"sqlite", "postgres", "mysql", "mongo"}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":3000")
	v.SetDefault("http.static_dir", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "file:keyset.db?cache=shared")
	v.SetDefault("store.database", "keyset")
	v.SetDefault("store.collection", "products")
	v.SetDefault("paging.page_size", keyset.DefaultPageSize)
	v.SetDefault("paging.max_page_size", keyset.MaxPageSize)
	v.SetDefault("paging.query_timeout", 5*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration into v and returns it. An empty path looks
// for keyset.yaml in the working directory and /etc/keyset; a missing file
// is not an error then. Environment variables override the file.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("keyset")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/keyset")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		HTTP: HTTP{
			Addr:      v.GetString("http.addr"),
			StaticDir: v.GetString("http.static_dir"),
		},
		Store: Store{
			Driver:     strings.ToLower(v.GetString("store.driver")),
			DSN:        v.GetString("store.dsn"),
			Database:   v.GetString("store.database"),
			Collection: v.GetString("store.collection"),
		},
		Paging: Paging{
			PageSize:     v.GetInt("paging.page_size"),
			MaxPageSize:  v.GetInt("paging.max_page_size"),
			QueryTimeout: v.GetDuration("paging.query_timeout"),
		},
		Log: Log{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if !lo.Contains(_drivers, c.Store.Driver) {
		return fmt.Errorf("unsupported store driver '%s', expected one of %s", c.Store.Driver, strings.Join(_drivers, ", "))
	}

	if c.Store.DSN == "" {
		return errors.New("store.dsn is required")
	}

	if c.Paging.MaxPageSize <= 0 {
		return fmt.Errorf("paging.max_page_size must be positive, got %d", c.Paging.MaxPageSize)
	}

	if c.Paging.PageSize < 1 || c.Paging.PageSize > c.Paging.MaxPageSize {
		return fmt.Errorf("paging.page_size must be within [1, %d], got %d", c.Paging.MaxPageSize, c.Paging.PageSize)
	}

	if c.Paging.QueryTimeout < 0 {
		return fmt.Errorf("paging.query_timeout must not be negative, got %s", c.Paging.QueryTimeout)
	}

	return nil
}
