package alter_test

import (
	"fmt"
	"strconv"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

type testAlter struct {
	ref     string
	backref string
	name    string
	extra   []string
}

func header(direction, ref, backref string, extra ...string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "-- direction: %s\n", direction)
	if backref != "" {
		fmt.Fprintf(&sb, "-- backref: %s\n", backref)
	}
	fmt.Fprintf(&sb, "-- ref: %s\n", ref)
	for _, line := range extra {
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\nSELECT 1;\n")
	return sb.String()
}

func alterFS(alters ...testAlter) fstest.MapFS {
	fsys := fstest.MapFS{}
	for _, a := range alters {
		name := a.name
		if name == "" {
			name = "alter"
		}

		base := a.ref + "-" + name
		fsys[base+"-up.sql"] = &fstest.MapFile{Data: []byte(header("up", a.ref, a.backref, a.extra...))}
		fsys[base+"-down.sql"] = &fstest.MapFile{Data: []byte(header("down", a.ref, a.backref, a.extra...))}
	}

	return fsys
}

func mustInt(t *testing.T, s string) int64 {
	t.Helper()

	v, err := strconv.ParseInt(s, 10, 64)
	require.NoError(t, err)
	return v
}
