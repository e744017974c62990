package testutil

import (
	"os/exec"
	"testing"

	"github.com/pseudomuto/schematool/pkg/config"
	"github.com/pseudomuto/schematool/pkg/consts"
	"github.com/pseudomuto/schematool/pkg/docker"
	"github.com/stretchr/testify/require"
)

// SkipIfNoDocker skips the test if Docker is not available
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping Docker tests in short mode")
	}

	// Check if Docker binary exists
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("Docker not available")
	}

	// Check if Docker daemon is running
	cmd := exec.CommandContext(t.Context(), "docker", "ps")
	if err := cmd.Run(); err != nil {
		t.Skip("Docker daemon not running")
	}
}

// StartDatabase runs engine in a container for the duration of the test and
// points the fixture config at it.
func (p *ProjectFixture) StartDatabase(engine docker.Engine) *docker.Container {
	p.t.Helper()

	SkipIfNoDocker(p.t)

	c := docker.NewWithOptions(docker.DockerOptions{Engine: engine})
	require.NoError(p.t, c.Start(p.t.Context()), "Failed to start container")
	p.t.Cleanup(func() { _ = c.Stop(p.t.Context()) })

	ep, err := c.Endpoint(p.t.Context())
	require.NoError(p.t, err)

	p.WithConfig(func(cfg *config.Config) {
		cfg.Type = string(engine)
		cfg.Host = ep.Host
		cfg.Port = ep.Port
		cfg.Username = ep.Username
		cfg.Password = ep.Password
		cfg.DBName = ep.Database
		cfg.HistoryTableName = consts.DefaultHistoryTable
		if engine == docker.EnginePostgres {
			cfg.RevisionSchemaName = "revision"
		}
	})

	return c
}
