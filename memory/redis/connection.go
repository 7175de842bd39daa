package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"

	skerrors "github.com/skreaver-dev/skreaver/errors"
)

// Metrics tracks a running count of command outcomes and a cumulative
// average latency, mirroring the reference backend's connection metrics.
type Metrics struct {
	TotalCommands      int64
	SuccessfulCommands int64
	FailedCommands     int64
	AvgLatencyMs       float64
}

func (m *Metrics) record(latencyMs float64, success bool) {
	m.TotalCommands++
	if success {
		m.SuccessfulCommands++
	} else {
		m.FailedCommands++
	}
	m.AvgLatencyMs = m.AvgLatencyMs + (latencyMs-m.AvgLatencyMs)/float64(m.TotalCommands)
}

// Disconnected is the only value a caller can hold before Connect succeeds.
type Disconnected struct{ cfg ValidConfig }

func NewDisconnected(cfg ValidConfig) Disconnected { return Disconnected{cfg: cfg} }

// Connected is the type-state tag proving a connection has been
// established; its constructor is private to this package, so only
// Disconnected.Connect can produce one.
type Connected struct {
	client    goredis.UniversalClient
	keyPrefix string
	metrics   Metrics
}

// Connect builds the underlying client for cfg's deployment variant and
// verifies it is reachable with a PING.
func (d Disconnected) Connect(ctx context.Context) (*Connected, error) {
	var client goredis.UniversalClient

	switch d.cfg.c.Deployment.kind {
	case kindStandalone:
		opts, err := goredis.ParseURL(d.cfg.c.Deployment.url)
		if err != nil {
			return nil, skerrors.Wrap(skerrors.InvalidValue, skerrors.OpConnect, skerrors.BackendRedis, "parse redis url", err)
		}
		if d.cfg.c.Password != "" {
			opts.Password = d.cfg.c.Password
		}
		client = goredis.NewClient(opts)
	case kindCluster:
		client = goredis.NewClusterClient(&goredis.ClusterOptions{
			Addrs:    d.cfg.c.Deployment.nodes,
			Password: d.cfg.c.Password,
		})
	case kindSentinel:
		client = goredis.NewFailoverClient(&goredis.FailoverOptions{
			MasterName:    d.cfg.c.Deployment.masterName,
			SentinelAddrs: d.cfg.c.Deployment.sentinels,
			Password:      d.cfg.c.Password,
		})
	default:
		return nil, skerrors.New(skerrors.InvalidValue, skerrors.OpConnect, skerrors.BackendRedis, "unknown deployment kind")
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, sanitize(skerrors.OpConnect, err)
	}

	return &Connected{client: client, keyPrefix: d.cfg.c.KeyPrefix}, nil
}

// Disconnect closes the underlying client; the type-state tag prevents
// further Execute/Ping calls once the value goes out of scope.
func (c *Connected) Disconnect() error {
	return c.client.Close()
}

func (c *Connected) prefixedKey(key string) string {
	if c.keyPrefix == "" {
		return key
	}
	return c.keyPrefix + ":" + key
}

func (c *Connected) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// sanitize maps a go-redis error to a small public vocabulary, matching the
// reference backend's sanitized error surface.
func sanitize(op skerrors.MemoryOperation, err error) *skerrors.MemoryError {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case contains(msg, "NOAUTH", "WRONGPASS", "AuthenticationFailed"):
		return skerrors.Wrap(skerrors.AccessDenied, op, skerrors.BackendRedis, "authentication failed", err)
	case contains(msg, "WRONGTYPE"):
		return skerrors.Wrap(skerrors.InvalidValue, op, skerrors.BackendRedis, "type error", err)
	case contains(msg, "EXECABORT"):
		return skerrors.Wrap(skerrors.InternalError, op, skerrors.BackendRedis, "transaction aborted", err)
	case contains(msg, "BUSY"):
		return skerrors.Wrap(skerrors.ResourceExhausted, op, skerrors.BackendRedis, "server busy loading", err)
	case contains(msg, "NOSCRIPT"):
		return skerrors.Wrap(skerrors.InternalError, op, skerrors.BackendRedis, "script not found", err)
	case contains(msg, "READONLY"):
		return skerrors.Wrap(skerrors.AccessDenied, op, skerrors.BackendRedis, "replica is read-only", err)
	case contains(msg, "connection", "dial"):
		return skerrors.Wrap(skerrors.NetworkError, op, skerrors.BackendRedis, "connection failed", err)
	case contains(msg, "timeout", "i/o timeout"):
		return skerrors.Wrap(skerrors.Timeout, op, skerrors.BackendRedis, "operation timed out", err)
	default:
		return skerrors.Wrap(skerrors.InternalError, op, skerrors.BackendRedis, "database error occurred", err)
	}
}

func contains(haystack string, needles ...string) bool {
	for _, n := range needles {
		if len(haystack) >= len(n) && indexOf(haystack, n) >= 0 {
			return true
		}
	}
	return false
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
