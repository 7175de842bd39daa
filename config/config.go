// Package config loads the module's runtime configuration from YAML:
// which memory backend to run against, its pool/timeout settings, and the
// protocol bridges' polling behavior.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// MemoryBackendKind names which memory backend a Config selects.
type MemoryBackendKind string

const (
	BackendInMemory MemoryBackendKind = "in_memory"
	BackendSqlite   MemoryBackendKind = "sqlite"
	BackendPostgres MemoryBackendKind = "postgres"
	BackendRedis    MemoryBackendKind = "redis"
	BackendMongo    MemoryBackendKind = "mongo"
)

// Config is the top-level, YAML-deserialized runtime configuration.
type Config struct {
	Memory MemoryConfig `yaml:"memory"`
	Bridge BridgeConfig `yaml:"bridge"`
}

// MemoryConfig selects and configures one memory backend.
type MemoryConfig struct {
	Backend  MemoryBackendKind `yaml:"backend"`
	Sqlite   SqliteConfig      `yaml:"sqlite"`
	Postgres PostgresConfig    `yaml:"postgres"`
	Redis    RedisConfig       `yaml:"redis"`
	Mongo    MongoConfig       `yaml:"mongo"`
}

// SqliteConfig mirrors memory/sqlite's pool size and timeout knobs.
type SqliteConfig struct {
	Path              string        `yaml:"path"`
	PoolSize          int           `yaml:"poolSize"`
	StatementTimeout  time.Duration `yaml:"statementTimeout"`
	TransactionTimeout time.Duration `yaml:"transactionTimeout"`
	MigrationTimeout  time.Duration `yaml:"migrationTimeout"`
	AcquireTimeout    time.Duration `yaml:"acquireTimeout"`
}

// PostgresConfig mirrors memory/postgres.Config.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	PoolSize        int           `yaml:"poolSize"`
	ConnectTimeout  time.Duration `yaml:"connectTimeout"`
	ApplicationName string        `yaml:"applicationName"`
}

// RedisConfig mirrors memory/redis's deployment variants.
type RedisConfig struct {
	Deployment string   `yaml:"deployment"` // standalone | cluster | sentinel
	URL        string   `yaml:"url"`
	Nodes      []string `yaml:"nodes"`
	Sentinels  []string `yaml:"sentinels"`
	MasterName string   `yaml:"masterName"`
	KeyPrefix  string   `yaml:"keyPrefix"`
	Password   string   `yaml:"password"`
}

// MongoConfig mirrors memory/mongo.Options.
type MongoConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	Collection     string        `yaml:"collection"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
}

// BridgeConfig configures the protocol/bridge package's A2aToMcpBridge poll
// loop.
type BridgeConfig struct {
	PollIntervalMs int           `yaml:"pollIntervalMs"`
	Timeout        time.Duration `yaml:"timeout"`
}

// Load reads and parses a YAML config file from path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
