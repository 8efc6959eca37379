// Package config loads tasklists settings from defaults, an optional YAML
// file, a .env file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no config path is given. It may be absent.
const DefaultFile = "tasklists.yml"

// Store drivers.
const (
	DriverMongo = "mongo"
	DriverMySQL = "mysql"
	DriverRedis = "redis"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Events EventsConfig `yaml:"events"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// BasePath is the prefix the app is mounted under behind a proxy,
	// e.g. "/lista_node". Redirects are built from it.
	BasePath     string        `yaml:"base_path,omitempty"`
	ViewCacheTTL time.Duration `yaml:"view_cache_ttl,omitempty"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`

	MongoURI        string `yaml:"mongo_uri,omitempty"`
	MongoDatabase   string `yaml:"mongo_database,omitempty"`
	MongoCollection string `yaml:"mongo_collection,omitempty"`

	MySQLDSN string `yaml:"mysql_dsn,omitempty"`

	RedisAddr     string `yaml:"redis_addr,omitempty"`
	RedisPassword string `yaml:"redis_password,omitempty"`
	RedisDB       int    `yaml:"redis_db,omitempty"`
	Namespace     string `yaml:"namespace,omitempty"`

	ConnectTimeout time.Duration `yaml:"connect_timeout,omitempty"`
}

// EventsConfig enables task event publishing over Redis Pub/Sub when
// RedisAddr is set.
type EventsConfig struct {
	RedisAddr string `yaml:"redis_addr,omitempty"`
	Namespace string `yaml:"namespace,omitempty"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":3000"},
		Store: StoreConfig{
			Driver:          DriverMongo,
			MongoURI:        "mongodb://127.0.0.1:27017",
			MongoDatabase:   "tasklists",
			MongoCollection: "tasks",
			MySQLDSN:        "root:123456@tcp(127.0.0.1:3306)/tasklists?parseTime=true",
			RedisAddr:       "127.0.0.1:6379",
			Namespace:       "default",
			ConnectTimeout:  10 * time.Second,
		},
		Events: EventsConfig{Namespace: "default"},
	}
}

// Load builds a Config. An explicit path must exist; with an empty path
// DefaultFile is used if present. A .env file in the working directory is
// loaded into the environment without overriding variables already set.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	cfg.Server.BasePath = strings.TrimRight(cfg.Server.BasePath, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		c.Server.Addr = ":" + v
	}
	str("TASKLISTS_ADDR", &c.Server.Addr)
	str("TASKLISTS_BASE_PATH", &c.Server.BasePath)
	str("TASKLISTS_STORE_DRIVER", &c.Store.Driver)
	str("MONGO_URI", &c.Store.MongoURI)
	str("TASKLISTS_MONGO_DATABASE", &c.Store.MongoDatabase)
	str("STORE_DSN", &c.Store.MySQLDSN)
	str("TASKLISTS_REDIS_ADDR", &c.Store.RedisAddr)
	str("TASKLISTS_REDIS_PASSWORD", &c.Store.RedisPassword)
	str("TASKLISTS_NAMESPACE", &c.Store.Namespace)
	str("TASKLISTS_EVENTS_REDIS_ADDR", &c.Events.RedisAddr)

	if v, ok := lookup("TASKLISTS_REDIS_DB"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TASKLISTS_REDIS_DB: %w", err)
		}
		c.Store.RedisDB = n
	}
	if v, ok := lookup("TASKLISTS_VIEW_CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TASKLISTS_VIEW_CACHE_TTL: %w", err)
		}
		c.Server.ViewCacheTTL = d
	}
	return nil
}

// Validate checks the driver and the fields it needs.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("server.base_path must start with '/': %q", c.Server.BasePath)
	}
	if c.Server.ViewCacheTTL < 0 {
		return fmt.Errorf("server.view_cache_ttl cannot be negative")
	}

	switch c.Store.Driver {
	case DriverMongo:
		if c.Store.MongoURI == "" || c.Store.MongoDatabase == "" || c.Store.MongoCollection == "" {
			return fmt.Errorf("store: mongo driver requires mongo_uri, mongo_database and mongo_collection")
		}
	case DriverMySQL:
		if c.Store.MySQLDSN == "" {
			return fmt.Errorf("store: mysql driver requires mysql_dsn")
		}
	case DriverRedis:
		if c.Store.RedisAddr == "" || c.Store.Namespace == "" {
			return fmt.Errorf("store: redis driver requires redis_addr and namespace")
		}
	default:
		return fmt.Errorf("store: unknown driver %q (want mongo, mysql or redis)", c.Store.Driver)
	}

	if c.Events.RedisAddr != "" && c.Events.Namespace == "" {
		return fmt.Errorf("events: namespace is required when redis_addr is set")
	}
	return nil
}
