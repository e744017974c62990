package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pseudomuto/schematool/pkg/config"
	"github.com/pseudomuto/schematool/pkg/consts"
	"github.com/pseudomuto/schematool/pkg/history"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// ProjectFixture represents a test project: a temp directory with a config
// file, an alter directory and an in-memory history store.
type ProjectFixture struct {
	Dir    string
	Config *config.Config
	Store  *history.MemoryStore
	t      *testing.T
}

// Alter describes an up/down pair to write into the fixture.
type Alter struct {
	Ref     string
	BackRef string
	Name    string

	// Header lines added after ref (e.g. "-- require-env: prod")
	Extra []string

	UpSQL   string
	DownSQL string
}

// TestProject creates an isolated temp directory with a memory-backed config
// and an empty alters directory.
func TestProject(t *testing.T) *ProjectFixture {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		Type:             config.TypeMemory,
		HistoryTableName: consts.DefaultHistoryTable,
		AlterDir:         filepath.Join(dir, "alters"),
	}

	require.NoError(t, os.MkdirAll(cfg.AlterDir, consts.ModeDir))

	p := &ProjectFixture{
		Dir:    dir,
		Config: cfg,
		Store:  history.NewMemoryStore(),
		t:      t,
	}

	p.saveConfig()
	return p
}

// WithConfig applies fn to the configuration and rewrites the config file.
func (p *ProjectFixture) WithConfig(fn func(*config.Config)) *ProjectFixture {
	p.t.Helper()

	fn(p.Config)
	p.saveConfig()
	return p
}

// WithAlters writes up and down files for every alter.
func (p *ProjectFixture) WithAlters(alters ...Alter) *ProjectFixture {
	p.t.Helper()

	for _, a := range alters {
		name := a.Name
		if name == "" {
			name = "alter"
		}

		for _, direction := range []string{"up", "down"} {
			var sb strings.Builder
			fmt.Fprintf(&sb, "-- direction: %s\n", direction)
			if a.BackRef != "" {
				fmt.Fprintf(&sb, "-- backref: %s\n", a.BackRef)
			}
			fmt.Fprintf(&sb, "-- ref: %s\n", a.Ref)
			for _, line := range a.Extra {
				sb.WriteString(line + "\n")
			}
			sb.WriteString("\n")

			sql := a.UpSQL
			if direction == "down" {
				sql = a.DownSQL
			}
			if sql != "" {
				sb.WriteString(sql + "\n")
			}

			path := filepath.Join(p.Config.AlterDir, fmt.Sprintf("%s-%s-%s.sql", a.Ref, name, direction))
			require.NoError(p.t, os.WriteFile(path, []byte(sb.String()), consts.ModeFile))
		}
	}

	return p
}

// Linear returns alters where each one backrefs the previous ref.
func Linear(refs ...string) []Alter {
	alters := make([]Alter, len(refs))
	for i, ref := range refs {
		alters[i] = Alter{Ref: ref, Name: fmt.Sprintf("alter_%d", i+1)}
		if i > 0 {
			alters[i].BackRef = refs[i-1]
		}
	}

	return alters
}

// WithHistory records refs as applied, in order.
func (p *ProjectFixture) WithHistory(refs ...string) *ProjectFixture {
	p.t.Helper()

	for _, ref := range refs {
		require.NoError(p.t, p.Store.AppendCommit(context.Background(), ref))
	}

	return p
}

// History returns the applied refs in the order they were recorded.
func (p *ProjectFixture) History() []string {
	p.t.Helper()

	entries, err := p.Store.CommitHistory(context.Background())
	require.NoError(p.t, err)
	return history.Refs(history.SortAscending(entries))
}

// Loader returns a config.Loader yielding the fixture config.
func (p *ProjectFixture) Loader() config.Loader {
	return config.Static(p.Config)
}

// Factory returns a history.Factory yielding the fixture store.
func (p *ProjectFixture) Factory() history.Factory {
	return history.Static(p.Store)
}

// Path joins elem with the fixture directory.
func (p *ProjectFixture) Path(elem ...string) string {
	return filepath.Join(append([]string{p.Dir}, elem...)...)
}

func (p *ProjectFixture) saveConfig() {
	p.t.Helper()

	data, err := yaml.Marshal(p.Config)
	require.NoError(p.t, err)
	require.NoError(p.t, os.WriteFile(p.Path(config.Filenames[0]), data, consts.ModeFile))
}
