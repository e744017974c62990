package alter

import (
	"io/fs"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/pseudomuto/schematool/pkg/consts"
)

// Chain is a validated, linear sequence of alters. Head is the oldest alter
// (no backref) and Tail the newest. An empty Chain has nil Head and Tail.
type Chain struct {
	Head *Node
	Tail *Node

	nodes []*Node
	byID  map[string]*Node
}

// Len returns the number of alters in the chain.
func (c *Chain) Len() int {
	return len(c.nodes)
}

// Empty reports whether the chain has no alters.
func (c *Chain) Empty() bool {
	return len(c.nodes) == 0
}

// Nodes returns the alters ordered from tail to head, the order in which a
// backref walk visits them.
func (c *Chain) Nodes() []*Node {
	out := make([]*Node, len(c.nodes))
	copy(out, c.nodes)
	return out
}

// Find returns the alter with the given ref, or nil.
func (c *Chain) Find(ref string) *Node {
	return c.byID[ref]
}

// IDs returns the refs of all alters, tail first.
func (c *Chain) IDs() []string {
	ids := make([]string, len(c.nodes))
	for i, n := range c.nodes {
		ids[i] = n.ID
	}

	return ids
}

// GetAlterFiles lists the files at the root of fsys that follow the alter
// naming standard. Subdirectories are not searched.
func GetAlterFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read alter directory")
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !consts.FilenameStandard.MatchString(entry.Name()) {
			continue
		}

		files = append(files, entry.Name())
	}

	return files, nil
}

// BuildSoftChain creates one unlinked Node per up-file in files. Files that
// don't match the naming standard, aren't up-alters, or have no ref are
// skipped. BackRef is left as the raw header value.
func BuildSoftChain(fsys fs.FS, files []string) ([]*Node, error) {
	nodes := make([]*Node, 0, len(files)/2)
	for _, name := range files {
		if !consts.FilenameStandard.MatchString(name) {
			continue
		}

		header, err := readHeaderFile(fsys, name)
		if err != nil {
			return nil, err
		}

		if header.Direction != Up {
			continue
		}

		ref, ok := header.Meta[KeyRef]
		if !ok {
			slog.Debug("Skipping alter without ref", "file", name)
			continue
		}

		node := &Node{
			ID:       ref,
			BackRef:  header.Meta[KeyBackRef],
			Filename: name,
			Meta:     header.Meta,
		}

		if err := applyEnv(node); err != nil {
			return nil, err
		}

		nodes = append(nodes, node)
	}

	return nodes, nil
}

// BuildAndValidate links the soft nodes into a Chain, enforcing:
//
//   - every backref resolves to exactly one alter
//   - no two alters share a parent
//   - exactly one head
//   - exactly one tail, reaching every alter
//
// An empty node set yields an empty Chain. No partially linked chain is ever
// returned with an error, and Parent pointers are only assigned on success.
func BuildAndValidate(nodes []*Node) (*Chain, error) {
	if len(nodes) == 0 {
		return &Chain{byID: map[string]*Node{}}, nil
	}

	byID := make(map[string][]int, len(nodes))
	for i, n := range nodes {
		byID[n.ID] = append(byID[n.ID], i)
	}

	parents := make([]int, len(nodes))
	children := make([][]int, len(nodes))
	var heads []int

	for i, n := range nodes {
		if n.BackRef == "" {
			parents[i] = -1
			heads = append(heads, i)
			continue
		}

		matches := byID[n.BackRef]
		switch len(matches) {
		case 0:
			return nil, &MissingRefError{Ref: n.BackRef, Filename: n.Filename}
		case 1:
			parents[i] = matches[0]
			children[matches[0]] = append(children[matches[0]], i)
		default:
			return nil, &DuplicateRefsError{Ref: n.BackRef, Filenames: filenames(nodes, matches)}
		}
	}

	for i, kids := range children {
		if len(kids) > 1 {
			return nil, &DivergentBranchError{Parent: nodes[i].ID, Filenames: filenames(nodes, kids)}
		}
	}

	if len(heads) != 1 {
		return nil, &HeadError{Filenames: filenames(nodes, heads)}
	}

	var tails []int
	for i := range nodes {
		if parents[i] != -1 && len(children[i]) == 0 {
			tails = append(tails, i)
		}
	}

	tail := heads[0]
	switch {
	case len(tails) > 1:
		return nil, &DuplicateRefsError{Filenames: filenames(nodes, tails)}
	case len(tails) == 0 && len(nodes) > 1:
		return nil, &CircularRefError{}
	case len(tails) == 1:
		tail = tails[0]
	}

	// walk tail -> head; anything not visited hangs off a loop
	order := make([]int, 0, len(nodes))
	visited := make([]bool, len(nodes))
	for i := tail; i != -1; i = parents[i] {
		visited[i] = true
		order = append(order, i)
	}

	if len(order) != len(nodes) {
		var loop []int
		for i := range nodes {
			if !visited[i] {
				loop = append(loop, i)
			}
		}

		return nil, &CircularRefError{Filenames: filenames(nodes, loop)}
	}

	chain := &Chain{
		nodes: make([]*Node, 0, len(order)),
		byID:  make(map[string]*Node, len(order)),
	}

	for _, i := range order {
		n := nodes[i]
		if p := parents[i]; p != -1 {
			n.Parent = nodes[p]
		}

		chain.nodes = append(chain.nodes, n)
		chain.byID[n.ID] = n
	}

	chain.Tail = nodes[tail]
	chain.Head = nodes[heads[0]]
	return chain, nil
}

// BuildChain scans fsys and returns the validated chain.
func BuildChain(fsys fs.FS) (*Chain, error) {
	files, err := GetAlterFiles(fsys)
	if err != nil {
		return nil, err
	}

	nodes, err := BuildSoftChain(fsys, files)
	if err != nil {
		return nil, err
	}

	chain, err := BuildAndValidate(nodes)
	if err != nil {
		return nil, err
	}

	slog.Debug("Built alter chain", "alters", chain.Len())
	return chain, nil
}

func readHeaderFile(fsys fs.FS, name string) (Header, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return Header{}, errors.Wrapf(err, "failed to open alter: %s", name)
	}
	defer func() { _ = f.Close() }()

	header, err := ReadHeader(f)
	if err != nil {
		return Header{}, errors.Wrapf(err, "failed to read alter: %s", name)
	}

	return header, nil
}

func applyEnv(n *Node) error {
	require, hasRequire := n.Meta[KeyRequireEnv]
	skip, hasSkip := n.Meta[KeySkipEnv]

	if hasRequire && hasSkip {
		return &ConfigError{Filename: n.Filename, Msg: "Cannot use skip-env with require-env"}
	}

	var err error
	if hasRequire {
		if n.RequireEnv, err = ParseEnv(require); err != nil {
			return withFilename(err, n.Filename)
		}
	}

	if hasSkip {
		if n.SkipEnv, err = ParseEnv(skip); err != nil {
			return withFilename(err, n.Filename)
		}
	}

	return nil
}

func withFilename(err error, filename string) error {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		cfgErr.Filename = filename
	}

	return err
}

func filenames(nodes []*Node, idx []int) []string {
	out := make([]string, len(idx))
	for i, n := range idx {
		out[i] = nodes[n].Filename
	}

	return out
}
