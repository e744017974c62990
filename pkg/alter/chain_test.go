package alter_test

import (
	"strings"
	"testing"
	"testing/fstest"

	. "github.com/pseudomuto/schematool/pkg/alter"
	"github.com/stretchr/testify/require"
)

func TestGetAlterFiles(t *testing.T) {
	fsys := alterFS(testAlter{ref: "170000000000"})
	fsys["README.md"] = &fstest.MapFile{Data: []byte("docs")}
	fsys["17-short-up.sql"] = &fstest.MapFile{Data: []byte("-- direction: up")}
	fsys["nested/170000000010-x-up.sql"] = &fstest.MapFile{Data: []byte("-- direction: up")}

	files, err := GetAlterFiles(fsys)
	require.NoError(t, err)
	require.Equal(t, []string{
		"170000000000-alter-down.sql",
		"170000000000-alter-up.sql",
	}, files)
}

func TestBuildSoftChain(t *testing.T) {
	t.Run("one_node_per_up_file", func(t *testing.T) {
		fsys := alterFS(
			testAlter{ref: "170000000000", name: "first"},
			testAlter{ref: "170000000010", backref: "170000000000", name: "second"},
		)
		files, err := GetAlterFiles(fsys)
		require.NoError(t, err)

		nodes, err := BuildSoftChain(fsys, files)
		require.NoError(t, err)
		require.Len(t, nodes, 2)

		require.Equal(t, "170000000000", nodes[0].ID)
		require.Empty(t, nodes[0].BackRef)
		require.Equal(t, "170000000000-first-up.sql", nodes[0].Filename)

		require.Equal(t, "170000000010", nodes[1].ID)
		require.Equal(t, "170000000000", nodes[1].BackRef)
		require.Nil(t, nodes[1].Parent)
	})

	t.Run("skips_files_without_ref", func(t *testing.T) {
		fsys := fstest.MapFS{
			"170000000000-noref-up.sql": {Data: []byte("-- direction: up\n\nSELECT 1;")},
		}

		nodes, err := BuildSoftChain(fsys, []string{"170000000000-noref-up.sql"})
		require.NoError(t, err)
		require.Empty(t, nodes)
	})

	t.Run("parses_envs", func(t *testing.T) {
		fsys := alterFS(
			testAlter{ref: "170000000000", extra: []string{"-- require-env: prod, staging"}},
			testAlter{ref: "170000000010", backref: "170000000000", extra: []string{"-- skip-env: dev"}},
		)
		files, err := GetAlterFiles(fsys)
		require.NoError(t, err)

		nodes, err := BuildSoftChain(fsys, files)
		require.NoError(t, err)
		require.Equal(t, []string{"prod", "staging"}, nodes[0].RequireEnv)
		require.Equal(t, []string{"dev"}, nodes[1].SkipEnv)
	})

	t.Run("rejects_require_and_skip", func(t *testing.T) {
		fsys := fstest.MapFS{
			"170000000000-envs-up.sql": {Data: []byte("-- direction: up\n-- ref: 170000000000\n-- require-env: prod\n-- skip-env: dev\n")},
		}

		_, err := BuildSoftChain(fsys, []string{"170000000000-envs-up.sql"})
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		require.Equal(t, "170000000000-envs-up.sql", cfgErr.Filename)
	})

	t.Run("rejects_bad_env_names", func(t *testing.T) {
		fsys := fstest.MapFS{
			"170000000000-envs-up.sql": {Data: []byte("-- direction: up\n-- ref: 170000000000\n-- skip-env: d@v\n")},
		}

		_, err := BuildSoftChain(fsys, []string{"170000000000-envs-up.sql"})
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		require.Contains(t, err.Error(), "170000000000-envs-up.sql")
	})
}

func TestBuildAndValidate(t *testing.T) {
	node := func(id, backref string) *Node {
		return &Node{ID: id, BackRef: backref, Filename: id + "-n-up.sql"}
	}

	t.Run("empty", func(t *testing.T) {
		chain, err := BuildAndValidate(nil)
		require.NoError(t, err)
		require.True(t, chain.Empty())
		require.Nil(t, chain.Head)
		require.Nil(t, chain.Tail)
	})

	t.Run("single_node", func(t *testing.T) {
		chain, err := BuildAndValidate([]*Node{node("1", "")})
		require.NoError(t, err)
		require.Same(t, chain.Head, chain.Tail)
		require.Equal(t, 1, chain.Len())
	})

	t.Run("linear", func(t *testing.T) {
		// deliberately out of order
		nodes := []*Node{node("3", "2"), node("1", ""), node("2", "1")}
		chain, err := BuildAndValidate(nodes)
		require.NoError(t, err)
		require.Equal(t, "3", chain.Tail.ID)
		require.Equal(t, "1", chain.Head.ID)
		require.Equal(t, []string{"3", "2", "1"}, chain.IDs())

		visited := 0
		for n := chain.Tail; n != nil; n = n.Parent {
			visited++
		}
		require.Equal(t, 3, visited)
		require.Same(t, chain.Find("2"), chain.Tail.Parent)
		require.Nil(t, chain.Find("4"))
	})

	t.Run("divergent_branch", func(t *testing.T) {
		orders := [][]*Node{
			{node("1", ""), node("2", "1"), node("3", "1")},
			{node("3", "1"), node("2", "1"), node("1", "")},
		}

		for _, nodes := range orders {
			_, err := BuildAndValidate(nodes)
			var div *DivergentBranchError
			require.ErrorAs(t, err, &div)
			require.Equal(t, "1", div.Parent)
			require.Len(t, div.Filenames, 2)
			require.Contains(t, err.Error(), "resolve")
			require.True(t, IsStructural(err))
		}
	})

	t.Run("divergence_reported_before_heads", func(t *testing.T) {
		_, err := BuildAndValidate([]*Node{node("1", ""), node("2", "1"), node("3", "1"), node("9", "")})
		var div *DivergentBranchError
		require.ErrorAs(t, err, &div)
	})

	t.Run("missing_ref", func(t *testing.T) {
		_, err := BuildAndValidate([]*Node{node("1", ""), node("2", "7")})
		var missing *MissingRefError
		require.ErrorAs(t, err, &missing)
		require.Equal(t, "7", missing.Ref)
		require.Contains(t, err.Error(), "non-existent alter")
	})

	t.Run("duplicate_refs", func(t *testing.T) {
		a := node("1", "")
		b := &Node{ID: "1", Filename: "1-other-up.sql"}
		_, err := BuildAndValidate([]*Node{a, b, node("2", "1")})
		var dup *DuplicateRefsError
		require.ErrorAs(t, err, &dup)
		require.Equal(t, "1", dup.Ref)
		require.ElementsMatch(t, []string{"1-n-up.sql", "1-other-up.sql"}, dup.Filenames)
	})

	t.Run("multiple_heads", func(t *testing.T) {
		_, err := BuildAndValidate([]*Node{node("1", ""), node("2", "")})
		var head *HeadError
		require.ErrorAs(t, err, &head)
		require.Len(t, head.Filenames, 2)
		require.Contains(t, err.Error(), "More than one head")
	})

	t.Run("cycle_without_head", func(t *testing.T) {
		_, err := BuildAndValidate([]*Node{node("1", "2"), node("2", "1")})

		var head *HeadError
		require.ErrorAs(t, err, &head)
		require.Contains(t, err.Error(), "No head found")

		var circular *CircularRefError
		require.ErrorAs(t, err, &circular)
	})

	t.Run("cycle_beside_head", func(t *testing.T) {
		_, err := BuildAndValidate([]*Node{node("1", ""), node("2", "3"), node("3", "2")})
		var circular *CircularRefError
		require.ErrorAs(t, err, &circular)
	})

	t.Run("cycle_hanging_off_chain", func(t *testing.T) {
		nodes := []*Node{node("1", ""), node("2", "1"), node("5", "6"), node("6", "5")}
		_, err := BuildAndValidate(nodes)
		var circular *CircularRefError
		require.ErrorAs(t, err, &circular)
		require.ElementsMatch(t, []string{"5-n-up.sql", "6-n-up.sql"}, circular.Filenames)

		// nothing gets linked when validation fails
		for _, n := range nodes {
			require.Nil(t, n.Parent)
		}
	})
}

func TestBuildChain(t *testing.T) {
	t.Run("linear", func(t *testing.T) {
		fsys := alterFS(
			testAlter{ref: "170000000000", name: "create_users"},
			testAlter{ref: "170000000010", backref: "170000000000", name: "add_email"},
			testAlter{ref: "170000000020", backref: "170000000010", name: "drop_legacy"},
		)

		chain, err := BuildChain(fsys)
		require.NoError(t, err)
		require.Equal(t, []string{"170000000020", "170000000010", "170000000000"}, chain.IDs())
		require.Equal(t, "create_users", chain.Head.Name())
	})

	t.Run("long_line_in_header", func(t *testing.T) {
		seed := "INSERT INTO seeds VALUES ('" + strings.Repeat("x", 100*1024) + "');"
		fsys := alterFS(
			testAlter{ref: "170000000000", name: "seed", extra: []string{seed}},
			testAlter{ref: "170000000010", backref: "170000000000"},
		)

		chain, err := BuildChain(fsys)
		require.NoError(t, err)
		require.Equal(t, []string{"170000000010", "170000000000"}, chain.IDs())
	})
}
