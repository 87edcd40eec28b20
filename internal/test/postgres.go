package test

import (
	"context"
	"fmt"
	"os"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresFixture runs a throwaway postgres container. With
// SKIP_INFRASTRUCTURE=true it expects TEST_DATABASE_URL to point at an
// already running instance instead.
type PostgresFixture struct {
	container testcontainers.Container
	url       string
}

func SkipInfrastructure() bool {
	return os.Getenv("SKIP_INFRASTRUCTURE") == "true"
}

func NewPostgresFixture() *PostgresFixture {
	return &PostgresFixture{}
}

func (f *PostgresFixture) Start(ctx context.Context) error {
	if SkipInfrastructure() {
		f.url = os.Getenv("TEST_DATABASE_URL")
		if f.url == "" {
			return fmt.Errorf("SKIP_INFRASTRUCTURE set but TEST_DATABASE_URL is empty")
		}
		return nil
	}

	port := nat.Port("5432/tcp")
	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{string(port)},
		Env: map[string]string{
			"POSTGRES_USER":     "matchroom",
			"POSTGRES_PASSWORD": "matchroom",
			"POSTGRES_DB":       "matchroom",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(port),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return err
	}
	f.container = container

	host, err := container.Host(ctx)
	if err != nil {
		return err
	}

	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		return err
	}

	f.url = fmt.Sprintf(
		"postgres://matchroom:matchroom@%s:%s/matchroom?sslmode=disable",
		host,
		mapped.Port(),
	)
	return nil
}

func (f *PostgresFixture) URL() string {
	return f.url
}

func (f *PostgresFixture) Stop(ctx context.Context) error {
	if f.container == nil {
		return nil
	}
	return f.container.Terminate(ctx)
}
