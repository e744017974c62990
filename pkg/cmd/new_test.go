package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/schematool/pkg/alter"
	"github.com/pseudomuto/schematool/pkg/cmd/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewCommand(t *testing.T) {
	t.Run("first_alter", func(t *testing.T) {
		p := testutil.TestProject(t)

		out, err := testutil.RunCommand(t, newCmd(testDeps(t, p)), "-f", "create_users.sql")
		require.NoError(t, err)

		up := filepath.Join(p.Config.AlterDir, newRef+"-create_users-up.sql")
		down := filepath.Join(p.Config.AlterDir, newRef+"-create_users-down.sql")
		require.Equal(t, "Created file: "+up+"\nCreated file: "+down+"\n", out)

		testutil.RequireFileExists(t, up, func(content string) {
			require.Equal(t, "-- direction: up\n-- ref: "+newRef+"\n\n\n\n", content)
		})
		testutil.RequireFileExists(t, down, testutil.RequireFileContains(t, "-- direction: down\n"))
	})

	t.Run("appends_to_tail", func(t *testing.T) {
		p := testutil.TestProject(t).WithAlters(testutil.Linear(ref1, ref2)...)

		out, err := testutil.RunCommand(t, newCmd(testDeps(t, p)))
		require.NoError(t, err)
		require.Contains(t, out, "Parent file:  "+filepath.Join(p.Config.AlterDir, ref2+"-alter_2-up.sql")+"\n")

		up := filepath.Join(p.Config.AlterDir, newRef+"-_-up.sql")
		testutil.RequireFileExists(t, up, testutil.RequireFileContains(t, "-- backref: "+ref2+"\n"))

		chain, err := alter.Check(os.DirFS(p.Config.AlterDir))
		require.NoError(t, err)
		require.Equal(t, newRef, chain.Tail.ID)
		require.Equal(t, 3, chain.Len())
	})

	t.Run("env_headers", func(t *testing.T) {
		p := testutil.TestProject(t)

		_, err := testutil.RunCommand(t, newCmd(testDeps(t, p)), "-f", "backfill", "--require-env", "prod,stage")
		require.NoError(t, err)

		chain, err := alter.Check(os.DirFS(p.Config.AlterDir))
		require.NoError(t, err)
		require.Equal(t, []string{"prod", "stage"}, chain.Tail.RequireEnv)
		require.False(t, chain.Tail.ShouldRun("dev"))
	})

	t.Run("invalid_env", func(t *testing.T) {
		p := testutil.TestProject(t)

		_, err := testutil.RunCommand(t, newCmd(testDeps(t, p)), "--skip-env", "prod env")
		require.Error(t, err)
		testutil.RequireAlterCount(t, p.Config.AlterDir, 0)
	})

	t.Run("both_env_flags", func(t *testing.T) {
		p := testutil.TestProject(t)

		_, err := testutil.RunCommand(t, newCmd(testDeps(t, p)), "--skip-env", "prod", "--require-env", "dev")
		require.Error(t, err)

		var cfgErr *alter.ConfigError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("broken_chain", func(t *testing.T) {
		p := testutil.TestProject(t).WithAlters(
			testutil.Alter{Ref: ref1},
			testutil.Alter{Ref: ref2},
		)

		_, err := testutil.RunCommand(t, newCmd(testDeps(t, p)))
		require.Error(t, err)
		testutil.RequireAlterCount(t, p.Config.AlterDir, 4)
	})
}
