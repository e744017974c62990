package cmd

import (
	"testing"

	"github.com/pseudomuto/schematool/pkg/cmd/testutil"
	"github.com/stretchr/testify/require"
)

func TestRebuildCommand(t *testing.T) {
	p := testutil.TestProject(t).
		WithAlters(testutil.Linear(ref1, ref2, ref3)...).
		WithHistory(ref1, ref2)

	out, err := testutil.RunCommand(t, rebuildCmd(testDeps(t, p)))
	require.NoError(t, err)
	require.Equal(t, []string{ref1, ref2, ref3}, p.History())
	require.Contains(t, out, "Bringing all the way down\n")
	require.Contains(t, out, "\nBringing all the way back up\n")
	require.Contains(t, out, "Running alter: "+ref2+"-alter_2-down.sql\n")
}

func TestGenRefCommand(t *testing.T) {
	out, err := testutil.RunCommand(t, genRefCmd(deps{Refs: fixedRefs()}))
	require.NoError(t, err)
	require.Equal(t, "ref: "+newRef+"\n\n", out)
}
