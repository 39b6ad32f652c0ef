package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/chweb/chweb/internal/clickhouse"
	"github.com/chweb/chweb/internal/config"
	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	clickHouseUser     = "chweb"
	clickHousePassword = "chweb"
)

// NewClickHouseConfig starts a ClickHouse container and returns the
// configuration to reach it.
func NewClickHouseConfig(t *testing.T) config.ClickHouseConfig {
	t.Helper()

	container := NewClickHouseContainer(t)

	endpoint, err := container.PortEndpoint(context.Background(), nat.Port("8123/tcp"), "http")
	if err != nil {
		t.Skipf("failed to get ClickHouse container endpoint: %v", err)
	}

	return config.ClickHouseConfig{
		URL:         endpoint,
		User:        clickHouseUser,
		Password:    clickHousePassword,
		Compression: config.CompressionNone,
		DialTimeout: 10 * time.Second,
	}
}

// NewClickHouseClient starts a ClickHouse container and returns a client for it.
func NewClickHouseClient(t *testing.T) *clickhouse.Client {
	t.Helper()

	client, err := clickhouse.NewClient(NewClickHouseConfig(t))
	if err != nil {
		t.Fatalf("failed to create ClickHouse client: %v", err)
	}

	return client
}

// NewClickHouseContainer starts a ClickHouse server. The test is skipped
// when no container runtime is reachable.
func NewClickHouseContainer(t *testing.T) testcontainers.Container {
	t.Helper()

	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:latest",
		ExposedPorts: []string{"8123/tcp"},
		Env: map[string]string{
			"CLICKHOUSE_USER":     clickHouseUser,
			"CLICKHOUSE_PASSWORD": clickHousePassword,
		},
		WaitingFor: wait.ForHTTP("/ping").WithPort("8123/tcp"),
	}
	clickhouseC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("failed to create ClickHouse container: %v", err)
	}

	t.Cleanup(func() {
		if err := clickhouseC.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate ClickHouse container: %v", err)
		}
	})

	return clickhouseC
}
