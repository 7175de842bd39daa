//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/skreaver-dev/skreaver/identifiers"
	"github.com/skreaver-dev/skreaver/memory"
)

// These tests require Docker and are gated behind the "integration" build
// tag; they are not run as part of the default unit test suite.
func TestMemory_Integration_StoreLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "skreaver",
			"POSTGRES_PASSWORD": "skreaver",
			"POSTGRES_DB":       "skreaver",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer container.Terminate(ctx)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := Config{
		Host:           host,
		Port:           port.Int(),
		Database:       "skreaver",
		User:           "skreaver",
		Password:       "skreaver",
		ConnectTimeout: 10 * time.Second,
		PoolSize:       5,
	}

	m, err := Connect(ctx, cfg)
	require.NoError(t, err)
	defer m.Close()

	key, err := identifiers.ParseMemoryKey("last_input")
	require.NoError(t, err)
	require.NoError(t, m.Store(ctx, memory.NewUpdate(key, "hello")))

	v, ok, err := m.Load(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hello", v)
}
