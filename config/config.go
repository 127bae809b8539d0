// Package config loads the runtime configuration of an elucify application:
// built-in defaults, overlaid by an optional TOML file, overlaid by
// ELUCIFY_* environment variables.
//
// Databases are configured per name:
//
//	[databases.my_database]
//	url = "postgres://localhost/app"
//	max_connections = 16
//
// or ELUCIFY_DATABASES_MY_DATABASE_URL=postgres://localhost/app.
package config

import (
	"errors"
	"fmt"
	"net"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ELUCIFY"

// DefaultFile is looked up in the working directory when Load gets no path.
const DefaultFile = "elucify.toml"

// ErrDatabaseNotConfigured is returned by Database when no URL is set for
// the requested name.
var ErrDatabaseNotConfigured = errors.New("config: database not configured")

// Config holds the application settings.
type Config struct {
	Address         string
	Port            int
	LogLevel        string
	LogPretty       bool
	CORSOrigins     []string
	ShutdownTimeout time.Duration
	JWTSecret       string
	JWTTTL          time.Duration
	OTel            OTel

	v *viper.Viper
}

// OTel configures trace export. An empty Endpoint disables export.
type OTel struct {
	Endpoint string
	Insecure bool
}

// Database holds the settings of one named database pool.
type Database struct {
	URL            string
	MinConnections int
	MaxConnections int
	ConnectTimeout time.Duration
	IdleTimeout    time.Duration
}

// Load reads the configuration. An empty path looks for DefaultFile in the
// working directory and silently skips it when absent; an explicit path
// must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFile, ".toml"))
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read %s: %w", DefaultFile, err)
			}
		}
	}

	return fromViper(v)
}

// Default returns the built-in configuration without reading any file or
// environment variable.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, _ := fromViper(v)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("address", "127.0.0.1")
	v.SetDefault("port", 8000)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("shutdown_timeout", 5*time.Second)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_ttl", 24*time.Hour)
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.insecure", false)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Address:         v.GetString("address"),
		Port:            v.GetInt("port"),
		LogLevel:        v.GetString("log_level"),
		LogPretty:       v.GetBool("log_pretty"),
		CORSOrigins:     v.GetStringSlice("cors_origins"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		JWTSecret:       v.GetString("jwt_secret"),
		JWTTTL:          v.GetDuration("jwt_ttl"),
		OTel: OTel{
			Endpoint: v.GetString("otel.endpoint"),
			Insecure: v.GetBool("otel.insecure"),
		},
		v: v,
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("config: port %d out of range", cfg.Port)
	}
	return cfg, nil
}

// Set overrides a configuration key, e.g. "databases.my_database.url".
// Top-level fields are refreshed from the new value.
func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
	if refreshed, err := fromViper(c.v); err == nil {
		*c = *refreshed
	}
}

// Database returns the settings of the database pool called name.
// Unset limits fall back to defaults: MaxConnections to 4 x NumCPU and
// ConnectTimeout to 5s.
func (c *Config) Database(name string) (Database, error) {
	key := func(k string) string { return "databases." + name + "." + k }

	db := Database{
		URL:            c.v.GetString(key("url")),
		MinConnections: c.v.GetInt(key("min_connections")),
		MaxConnections: c.v.GetInt(key("max_connections")),
		ConnectTimeout: c.v.GetDuration(key("connect_timeout")),
		IdleTimeout:    c.v.GetDuration(key("idle_timeout")),
	}
	if db.URL == "" {
		return Database{}, fmt.Errorf("%w: %q", ErrDatabaseNotConfigured, name)
	}
	if db.MaxConnections <= 0 {
		db.MaxConnections = 4 * runtime.NumCPU()
	}
	if db.MinConnections < 0 || db.MinConnections > db.MaxConnections {
		return Database{}, fmt.Errorf("config: database %q: min_connections %d not within [0, %d]",
			name, db.MinConnections, db.MaxConnections)
	}
	if db.ConnectTimeout <= 0 {
		db.ConnectTimeout = 5 * time.Second
	}
	return db, nil
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}
