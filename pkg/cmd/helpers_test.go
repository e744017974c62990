package cmd

import (
	"testing"
	"time"

	"github.com/pseudomuto/schematool/pkg/alter"
	"github.com/pseudomuto/schematool/pkg/cmd/testutil"
)

const (
	ref1 = "170000000000"
	ref2 = "170000000010"
	ref3 = "170000000020"

	// generated by fixedRefs
	newRef = "176000000000"
)

func fixedRefs() *alter.RefGenerator {
	return alter.NewRefGenerator(func() time.Time { return time.Unix(1_760_000_000, 0) })
}

func testDeps(t *testing.T, p *testutil.ProjectFixture) deps {
	t.Helper()

	return deps{
		Config: p.Loader(),
		Stores: p.Factory(),
		Refs:   fixedRefs(),
	}
}
