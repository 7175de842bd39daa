package postgres

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var validDatabaseName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Config is a validated connection configuration. The only way to obtain one
// is Validate, matching the reference implementation's type-state builder:
// a pool can never be constructed from an unvalidated configuration.
type Config struct {
	Host              string
	Port              int
	Database          string
	User              string
	Password          string
	ConnectTimeout    time.Duration
	PoolSize          int
	ApplicationName   string
}

// FromURL parses a postgres:// connection string into an unvalidated Config.
func FromURL(raw string) (Config, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("parse connection url: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return Config{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	port := 5432
	if p := u.Port(); p != "" {
		fmt.Sscanf(p, "%d", &port)
	}
	password, _ := u.User.Password()
	cfg := Config{
		Host:            u.Hostname(),
		Port:            port,
		Database:        strings.TrimPrefix(u.Path, "/"),
		User:            u.User.Username(),
		Password:        password,
		ConnectTimeout:  10 * time.Second,
		PoolSize:        10,
		ApplicationName: "skreaver",
	}
	return cfg, nil
}

// Validate checks every field and returns a ValidConfig only if all pass:
// empty-field checks, a path-traversal check on Host, and an alnum/underscore
// check on Database.
func (c Config) Validate() (ValidConfig, error) {
	if c.Host == "" {
		return ValidConfig{}, fmt.Errorf("host must not be empty")
	}
	if strings.Contains(c.Host, "..") || strings.ContainsAny(c.Host, "/\\") {
		return ValidConfig{}, fmt.Errorf("host %q looks malformed", c.Host)
	}
	if c.Database == "" {
		return ValidConfig{}, fmt.Errorf("database must not be empty")
	}
	if !validDatabaseName.MatchString(c.Database) {
		return ValidConfig{}, fmt.Errorf("database name %q must match [A-Za-z0-9_]+", c.Database)
	}
	if c.User == "" {
		return ValidConfig{}, fmt.Errorf("user must not be empty")
	}
	if c.PoolSize < 1 || c.PoolSize > 100 {
		return ValidConfig{}, fmt.Errorf("pool size %d out of range [1,100]", c.PoolSize)
	}
	if c.ConnectTimeout <= 0 {
		return ValidConfig{}, fmt.Errorf("connect timeout must be positive")
	}
	return ValidConfig{c: c}, nil
}

// ValidConfig is only constructible via Config.Validate; PoolConnect accepts
// nothing else.
type ValidConfig struct{ c Config }

func (v ValidConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?application_name=%s&connect_timeout=%d",
		v.c.User, v.c.Password, v.c.Host, v.c.Port, v.c.Database, v.c.ApplicationName,
		int(v.c.ConnectTimeout.Seconds()))
}

func (v ValidConfig) PoolSize() int { return v.c.PoolSize }
