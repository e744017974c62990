package resolver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/schematool/pkg/alter"
	"github.com/pseudomuto/schematool/pkg/consts"
	"github.com/pseudomuto/schematool/pkg/executor"
	"github.com/pseudomuto/schematool/pkg/history"
)

var (
	refPrefix   = regexp.MustCompile(`^\d{12}`)
	refLine     = regexp.MustCompile(`^--\s*ref\s*:\s*(\d+)`)
	backrefLine = regexp.MustCompile(`^--\s*backref\s*:\s*(\d+)`)
)

type (
	// Resolver moves a divergent sub-chain behind the tail of the main chain.
	Resolver struct {
		alterDir  string
		staticDir string
		queries   history.Queries
		git       bool
		runner    executor.Runner
		refs      *alter.RefGenerator
		out       io.Writer
	}

	// Config contains configuration options for creating a new Resolver.
	Config struct {
		AlterDir string

		// StaticDir receives copies of relocated files with their history
		// statement appended. Empty disables static copies.
		StaticDir string

		// Queries renders history statements for static copies
		Queries history.Queries

		// Git stages renames with `git rm` and `git add`
		Git bool

		// Runner runs git (default: executor.ProcessRunner)
		Runner executor.Runner

		// Refs generates new refs (default: wall clock)
		Refs *alter.RefGenerator

		Out io.Writer
	}

	// Relocation records how a single alter was moved.
	Relocation struct {
		OldRef      string
		NewRef      string
		BackRef     string
		OldFilename string
		NewFilename string
	}
)

// New creates a Resolver.
func New(cfg Config) *Resolver {
	r := &Resolver{
		alterDir:  cfg.AlterDir,
		staticDir: cfg.StaticDir,
		queries:   cfg.Queries,
		git:       cfg.Git,
		runner:    cfg.Runner,
		refs:      cfg.Refs,
		out:       cfg.Out,
	}

	if r.alterDir == "" {
		r.alterDir = "."
	}
	if r.runner == nil {
		r.runner = executor.ProcessRunner{}
	}
	if r.refs == nil {
		r.refs = alter.NewRefGenerator(nil)
	}
	if r.out == nil {
		r.out = io.Discard
	}

	return r
}

// Resolve relocates the alter named by target (an up-file path or a ref) and
// all of its descendants behind the tail of the main chain, then validates
// the result.
//
// Example:
//
//	r := resolver.New(resolver.Config{AlterDir: "alters", Git: true})
//	moved, err := r.Resolve(ctx, "170000000020")
//	if err != nil {
//		return err
//	}
//
//	for _, m := range moved {
//		fmt.Printf("%s -> %s\n", m.OldFilename, m.NewFilename)
//	}
func (r *Resolver) Resolve(ctx context.Context, target string) ([]Relocation, error) {
	if target == "" {
		return nil, &ArgsError{Msg: "You must provide a filename or reference"}
	}

	nodes, err := r.softChain()
	if err != nil {
		return nil, err
	}

	ref, err := r.locate(target, nodes)
	if err != nil {
		return nil, err
	}

	_, _ = fmt.Fprintln(r.out, "Resolving")
	moved, err := r.relocate(ctx, ref, nodes)
	if err != nil {
		return moved, err
	}

	_, _ = fmt.Fprintln(r.out, "\nRe-Checking...")
	if _, err := alter.Check(os.DirFS(r.alterDir)); err != nil {
		return moved, err
	}

	return moved, nil
}

func (r *Resolver) softChain() ([]*alter.Node, error) {
	fsys := os.DirFS(r.alterDir)

	files, err := alter.GetAlterFiles(fsys)
	if err != nil {
		return nil, err
	}

	return alter.BuildSoftChain(fsys, files)
}

// locate maps target to a ref. Files are looked up as given and then inside
// the alter directory.
func (r *Resolver) locate(target string, nodes []*alter.Node) (string, error) {
	for _, path := range []string{target, filepath.Join(r.alterDir, target)} {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}

		return r.refFromFile(path, target)
	}

	for _, n := range nodes {
		if n.ID == target {
			return n.ID, nil
		}
	}

	return "", &NotFoundError{Target: target}
}

func (r *Resolver) refFromFile(path, fallback string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "error reading file '%s'", path)
	}
	defer func() { _ = f.Close() }()

	header, err := alter.ReadHeader(f)
	if err != nil {
		return "", err
	}

	if header.Direction != alter.Up {
		slog.Warn("File can only be an up-alter", "file", path)
	}

	if ref, ok := header.Meta[alter.KeyRef]; ok {
		return ref, nil
	}

	return fallback, nil
}

func (r *Resolver) relocate(ctx context.Context, ref string, nodes []*alter.Node) ([]Relocation, error) {
	children := func(id string) []*alter.Node {
		var out []*alter.Node
		for _, n := range nodes {
			if n.BackRef == id {
				out = append(out, n)
			}
		}
		return out
	}

	var heads []*alter.Node
	for _, n := range nodes {
		if n.ID == ref {
			heads = append(heads, n)
		}
	}

	switch len(heads) {
	case 0:
		return nil, &InternalError{Msg: fmt.Sprintf("no alter found with ref %s", ref)}
	case 1:
	default:
		return nil, &InternalError{Msg: fmt.Sprintf("multiple alters found with ref %s", ref)}
	}

	// sub is ordered oldest first
	var sub []*alter.Node
	inSub := make(map[*alter.Node]bool)
	for cur := heads[0]; cur != nil; {
		if inSub[cur] {
			return nil, &InternalError{Msg: fmt.Sprintf("circular reference at %s", cur.ID)}
		}

		sub = append(sub, cur)
		inSub[cur] = true

		kids := children(cur.ID)
		switch len(kids) {
		case 0:
			cur = nil
		case 1:
			cur = kids[0]
		default:
			return nil, &InternalError{Msg: fmt.Sprintf("%s has more than one child", cur.ID)}
		}
	}

	var tails []*alter.Node
	for _, n := range nodes {
		if !inSub[n] && len(children(n.ID)) == 0 {
			tails = append(tails, n)
		}
	}

	if len(tails) != 1 {
		return nil, &InternalError{Msg: fmt.Sprintf("expected a single tail outside the sub-chain, found %d", len(tails))}
	}

	tail := tails[0].ID
	refs := r.refs.Sequence(len(sub))
	moved := make([]Relocation, 0, len(sub))
	for i, n := range sub {
		newRef := refs[i]
		newUp := refPrefix.ReplaceAllString(n.Filename, newRef)
		newDown := refPrefix.ReplaceAllString(n.DownFilename(), newRef)

		if err := r.relocateFile(ctx, n.Filename, newUp, newRef, tail, alter.Up); err != nil {
			return moved, err
		}
		if err := r.relocateFile(ctx, n.DownFilename(), newDown, newRef, tail, alter.Down); err != nil {
			return moved, err
		}

		slog.Debug("Relocated alter", "ref", n.ID, "new_ref", newRef, "backref", tail)
		moved = append(moved, Relocation{
			OldRef:      n.ID,
			NewRef:      newRef,
			BackRef:     tail,
			OldFilename: n.Filename,
			NewFilename: newUp,
		})

		tail = newRef
	}

	return moved, nil
}

func (r *Resolver) relocateFile(ctx context.Context, oldName, newName, ref, backref string, dir alter.Direction) error {
	oldPath := filepath.Join(r.alterDir, oldName)
	newPath := filepath.Join(r.alterDir, newName)

	data, err := os.ReadFile(oldPath)
	if err != nil {
		return errors.Wrapf(err, "error renaming file '%s'", oldPath)
	}

	content := rewriteHeader(string(data), ref, backref)
	if err := os.WriteFile(newPath, []byte(content), consts.ModeFile); err != nil {
		return errors.Wrapf(err, "error renaming file '%s'", oldPath)
	}

	if err := os.Remove(oldPath); err != nil {
		slog.Warn("Could not delete file", "file", oldPath, "err", err)
	}

	commands := [][]string{
		{"rm", oldPath},
		{"add", newPath},
	}

	if r.staticDir != "" {
		query := r.queries.AppendCommitQuery(ref)
		if dir == alter.Down {
			query = r.queries.RemoveCommitQuery(ref)
		}

		oldStatic := filepath.Join(r.staticDir, oldName)
		newStatic := filepath.Join(r.staticDir, newName)
		if err := os.MkdirAll(r.staticDir, consts.ModeDir); err != nil {
			return errors.Wrapf(err, "failed to create static alter dir: %s", r.staticDir)
		}

		static := content + fmt.Sprintf("\n\n-- start rev query\n%s;\n-- end rev query\n", query)
		if err := os.WriteFile(newStatic, []byte(static), consts.ModeFile); err != nil {
			return errors.Wrapf(err, "failed to write static alter '%s'", newStatic)
		}

		commands = append(commands,
			[]string{"rm", "--ignore-unmatch", oldStatic},
			[]string{"add", newStatic},
		)
	}

	if r.git {
		r.stage(ctx, commands)
	}

	return nil
}

// stage runs git commands. Failures are reported but never stop a resolve.
func (r *Resolver) stage(ctx context.Context, commands [][]string) {
	for _, args := range commands {
		res, err := r.runner.Run(ctx, executor.Command{Name: "git", Args: args}, nil)
		if err != nil {
			slog.Warn("Error performing git operations", "err", err)
			return
		}

		if res.ExitCode != 0 {
			slog.Warn("git command failed",
				"args", strings.Join(args, " "),
				"exit_code", res.ExitCode,
				"stderr", strings.TrimSpace(res.Stderr),
			)
		}
	}
}

// rewriteHeader replaces the first ref and backref lines.
func rewriteHeader(content, ref, backref string) string {
	var sb strings.Builder
	foundRef, foundBack := false, false

	for _, line := range strings.SplitAfter(content, "\n") {
		switch {
		case !foundRef && refLine.MatchString(line):
			sb.WriteString("-- ref: " + ref + "\n")
			foundRef = true
		case !foundBack && backrefLine.MatchString(line):
			sb.WriteString("-- backref: " + backref + "\n")
			foundBack = true
		default:
			sb.WriteString(line)
		}
	}

	return sb.String()
}
