package migrator

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/schematool/pkg/alter"
	"github.com/pseudomuto/schematool/pkg/consts"
	"github.com/pseudomuto/schematool/pkg/history"
)

type (
	// Generator renders alters as plain SQL for running by hand, with the
	// statement that records (or forgets) each alter in history.
	Generator struct {
		alters  fs.FS
		queries history.Queries
	}

	// GenerateOptions control SQL generation.
	GenerateOptions struct {
		// NoRevision omits the history statement
		NoRevision bool

		// NoSQL omits the alter file contents
		NoSQL bool

		// Down renders down-files and the remove statement
		Down bool

		// RevQuery embeds the history statement right after the `-- ref:` line
		RevQuery bool
	}
)

// NewGenerator creates a Generator reading alters from fsys.
func NewGenerator(fsys fs.FS, queries history.Queries) *Generator {
	return &Generator{alters: fsys, queries: queries}
}

// Select returns the chain nodes for refs in the given order. With no refs the
// whole chain is returned oldest first, or newest first when down is set.
//
// Example:
//
//	nodes, err := gen.Select(chain, nil, false)
//	if err != nil {
//		return err
//	}
//
//	sql, err := gen.Generate(nodes, migrator.GenerateOptions{})
func (g *Generator) Select(chain *alter.Chain, refs []string, down bool) ([]*alter.Node, error) {
	if len(refs) == 0 {
		nodes := chain.Nodes()
		if !down {
			for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
				nodes[i], nodes[j] = nodes[j], nodes[i]
			}
		}

		return nodes, nil
	}

	nodes := make([]*alter.Node, 0, len(refs))
	for _, ref := range refs {
		n := chain.Find(ref)
		if n == nil {
			return nil, &UnknownRefError{Ref: ref}
		}
		nodes = append(nodes, n)
	}

	return nodes, nil
}

// Generate concatenates the SQL for nodes.
func (g *Generator) Generate(nodes []*alter.Node, opts GenerateOptions) (string, error) {
	var sb strings.Builder
	separate := len(nodes) > 1

	for _, n := range nodes {
		sql, err := g.generateOne(n, opts, separate)
		if err != nil {
			return "", err
		}
		sb.WriteString(sql)
	}

	return strings.TrimRight(sb.String(), " \t\r\n") + "\n", nil
}

// WriteStatic writes one file per node into dir, named like the alter file,
// with the history statement embedded. It returns the written paths.
func (g *Generator) WriteStatic(dir string, nodes []*alter.Node, opts GenerateOptions) ([]string, error) {
	if err := os.MkdirAll(dir, consts.ModeDir); err != nil {
		return nil, errors.Wrapf(err, "failed to create static alter dir: %s", dir)
	}

	opts.RevQuery = true
	direction := alter.Up
	if opts.Down {
		direction = alter.Down
	}

	paths := make([]string, 0, len(nodes))
	for _, n := range nodes {
		sql, err := g.Generate([]*alter.Node{n}, opts)
		if err != nil {
			return paths, err
		}

		path := filepath.Join(dir, n.FilenameFor(direction))
		if err := os.WriteFile(path, []byte(sql), consts.ModeFile); err != nil {
			return paths, errors.Wrapf(err, "failed to write %s", path)
		}

		paths = append(paths, path)
	}

	return paths, nil
}

func (g *Generator) generateOne(n *alter.Node, opts GenerateOptions, separate bool) (string, error) {
	direction := alter.Up
	if opts.Down {
		direction = alter.Down
	}

	var sql string
	if !opts.NoSQL {
		data, err := fs.ReadFile(g.alters, n.FilenameFor(direction))
		if err != nil {
			return "", errors.Wrapf(err, "error opening file '%s'", n.FilenameFor(direction))
		}

		sql = string(data)
		if separate {
			sql += "\n\n"
		}
	}

	if !opts.RevQuery && opts.NoRevision {
		return sql, nil
	}

	query := g.queries.AppendCommitQuery(n.ID)
	if opts.Down {
		query = g.queries.RemoveCommitQuery(n.ID)
	}
	query += ";"

	if !opts.RevQuery {
		return sql + query + "\n", nil
	}

	marker := fmt.Sprintf("-- ref: %s\n", n.ID)
	block := fmt.Sprintf("-- rev query:\n%s\n-- end rev query\n", query)
	return strings.ReplaceAll(sql, marker, marker+block), nil
}
