package cmd

import (
	"testing"

	"github.com/pseudomuto/schematool/pkg/cmd/testutil"
	"github.com/pseudomuto/schematool/pkg/migrator"
	"github.com/stretchr/testify/require"
)

func TestDownCommand(t *testing.T) {
	applied := func(t *testing.T) *testutil.ProjectFixture {
		return testutil.TestProject(t).
			WithAlters(testutil.Linear(ref1, ref2, ref3)...).
			WithHistory(ref1, ref2, ref3)
	}

	t.Run("requires_argument_or_count", func(t *testing.T) {
		p := applied(t)

		_, err := testutil.RunCommand(t, downCmd(testDeps(t, p)))

		var optErr *migrator.OptionsError
		require.ErrorAs(t, err, &optErr)
		require.Len(t, p.History(), 3)
	})

	t.Run("count", func(t *testing.T) {
		p := applied(t)

		out, err := testutil.RunCommand(t, downCmd(testDeps(t, p)), "-n", "1")
		require.NoError(t, err)
		require.Equal(t, []string{ref1, ref2}, p.History())
		require.Contains(t, out, "Running alter: "+ref3+"-alter_3-down.sql\n")
		require.Contains(t, out, "Downgraded\n")
	})

	t.Run("count_zero", func(t *testing.T) {
		p := applied(t)

		out, err := testutil.RunCommand(t, downCmd(testDeps(t, p)), "-n", "0")
		require.NoError(t, err)
		require.Equal(t, "Downgraded\n", out)
		require.Equal(t, []string{ref1, ref2, ref3}, p.History())
	})

	t.Run("negative_count", func(t *testing.T) {
		p := applied(t)

		_, err := testutil.RunCommand(t, downCmd(testDeps(t, p)), "--number=-1")

		var optErr *migrator.OptionsError
		require.ErrorAs(t, err, &optErr)
		require.Len(t, p.History(), 3)
	})

	t.Run("all", func(t *testing.T) {
		p := applied(t)

		_, err := testutil.RunCommand(t, downCmd(testDeps(t, p)), "all")
		require.NoError(t, err)
		require.Empty(t, p.History())
	})

	t.Run("base", func(t *testing.T) {
		p := applied(t)

		_, err := testutil.RunCommand(t, downCmd(testDeps(t, p)), "BASE")
		require.NoError(t, err)
		require.Equal(t, []string{ref1}, p.History())
	})

	t.Run("revision", func(t *testing.T) {
		p := applied(t)

		_, err := testutil.RunCommand(t, downCmd(testDeps(t, p)), ref2)
		require.NoError(t, err)
		require.Equal(t, []string{ref1}, p.History())
	})

	t.Run("revision_not_applied", func(t *testing.T) {
		p := testutil.TestProject(t).
			WithAlters(testutil.Linear(ref1, ref2, ref3)...).
			WithHistory(ref1)

		_, err := testutil.RunCommand(t, downCmd(testDeps(t, p)), ref3)

		var missing *migrator.MissingRefError
		require.ErrorAs(t, err, &missing)
		require.Equal(t, []string{ref1}, p.History())
	})
}
