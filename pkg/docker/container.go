package docker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultClickHousePort is the native protocol port of ClickHouse server
	DefaultClickHousePort = 9000

	// DefaultClickHouseHTTPPort is the default HTTP port for ClickHouse server
	DefaultClickHouseHTTPPort = 8123

	// DefaultPostgresPort is the default port for PostgreSQL
	DefaultPostgresPort = 5432

	DefaultClickHouseVersion = "25.7"
	DefaultPostgresVersion   = "16"
)

type (
	// Engine identifies the database a Container runs.
	Engine string

	// DockerOptions represents options for running a database in Docker
	DockerOptions struct {
		// Engine selects the database image (default: clickhouse)
		Engine Engine

		// Version is the image tag to run
		Version string

		// Database created on start and used for connections
		Database string

		Username string
		Password string
	}

	// Endpoint holds connection details for a running container.
	Endpoint struct {
		Host     string
		Port     int
		Database string
		Username string
		Password string
	}

	// Container manages a throwaway database container used to exercise
	// history stores and alters against a real server.
	Container struct {
		options   DockerOptions
		container testcontainers.Container
		port      nat.Port
	}
)

const (
	EngineClickHouse Engine = "clickhouse"
	EnginePostgres   Engine = "postgres"
)

// New creates a new ClickHouse container with default options
//
// Example:
//
//	container := docker.New()
//	if err := container.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer container.Stop(ctx)
//
//	ep, _ := container.Endpoint(ctx)
//	fmt.Println(ep.Host, ep.Port)
func New() *Container {
	return NewWithOptions(DockerOptions{})
}

// NewWithOptions creates a new container with custom options, filling in
// defaults for the selected engine.
func NewWithOptions(opts DockerOptions) *Container {
	if opts.Engine == "" {
		opts.Engine = EngineClickHouse
	}

	switch opts.Engine {
	case EnginePostgres:
		if opts.Version == "" {
			opts.Version = DefaultPostgresVersion
		}
		if opts.Database == "" {
			opts.Database = "postgres"
		}
		if opts.Username == "" {
			opts.Username = "postgres"
		}
		if opts.Password == "" {
			opts.Password = "postgres"
		}
	default:
		if opts.Version == "" {
			opts.Version = DefaultClickHouseVersion
		}
		if opts.Database == "" {
			opts.Database = "default"
		}
		if opts.Username == "" {
			opts.Username = "default"
		}
	}

	return &Container{options: opts}
}

// Start starts the database container and waits until it accepts connections
func (c *Container) Start(ctx context.Context) error {
	if c.container != nil {
		return errors.New("container is already running")
	}

	var err error
	switch c.options.Engine {
	case EnginePostgres:
		err = c.startPostgres(ctx)
	default:
		err = c.startClickHouse(ctx)
	}

	return err
}

func (c *Container) startClickHouse(ctx context.Context) error {
	ch, err := clickhouse.Run(ctx,
		fmt.Sprintf("clickhouse/clickhouse-server:%s-alpine", c.options.Version),
		clickhouse.WithUsername(c.options.Username),
		clickhouse.WithPassword(c.options.Password),
		clickhouse.WithDatabase(c.options.Database),
		testcontainers.WithEnv(map[string]string{"CLICKHOUSE_DEFAULT_ACCESS_MANAGEMENT": "1"}),
		testcontainers.WithWaitStrategyAndDeadline(
			5*time.Minute,
			wait.
				NewHTTPStrategy("/").
				WithPort(nat.Port("8123/tcp")).
				WithStatusCodeMatcher(func(status int) bool {
					return status == 200
				}),
		),
	)
	if err != nil {
		return errors.Wrap(err, "failed to start ClickHouse container")
	}

	c.container = ch
	c.port = nat.Port(fmt.Sprintf("%d/tcp", DefaultClickHousePort))
	return nil
}

func (c *Container) startPostgres(ctx context.Context) error {
	port := nat.Port(fmt.Sprintf("%d/tcp", DefaultPostgresPort))

	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:" + c.options.Version + "-alpine",
			ExposedPorts: []string{string(port)},
			Env: map[string]string{
				"POSTGRES_DB":       c.options.Database,
				"POSTGRES_USER":     c.options.Username,
				"POSTGRES_PASSWORD": c.options.Password,
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort(port),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to start PostgreSQL container")
	}

	c.container = pg
	c.port = port
	return nil
}

// Stop stops and removes the container
func (c *Container) Stop(ctx context.Context) error {
	if c.container == nil {
		return nil
	}

	err := c.container.Terminate(ctx)
	c.container = nil

	return errors.Wrap(err, "failed to stop container")
}

// Endpoint returns the mapped host and port of the running container
func (c *Container) Endpoint(ctx context.Context) (Endpoint, error) {
	if c.container == nil {
		return Endpoint{}, errors.New("container is not running")
	}

	host, err := c.container.Host(ctx)
	if err != nil {
		return Endpoint{}, errors.Wrap(err, "failed to get container host")
	}

	mapped, err := c.container.MappedPort(ctx, c.port)
	if err != nil {
		return Endpoint{}, errors.Wrap(err, "failed to get container port")
	}

	port, err := strconv.Atoi(mapped.Port())
	if err != nil {
		return Endpoint{}, errors.Wrapf(err, "invalid mapped port %s", mapped.Port())
	}

	return Endpoint{
		Host:     host,
		Port:     port,
		Database: c.options.Database,
		Username: c.options.Username,
		Password: c.options.Password,
	}, nil
}

// Options returns the effective options, defaults included.
func (c *Container) Options() DockerOptions {
	return c.options
}

// IsRunning returns true if the container is currently running
func (c *Container) IsRunning() bool {
	return c.container != nil
}
