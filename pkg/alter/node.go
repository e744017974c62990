package alter

import (
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/pseudomuto/schematool/pkg/consts"
)

var (
	refPrefix       = regexp.MustCompile(`^\d{12}-`)
	directionSuffix = regexp.MustCompile(`-(up|down)\.sql$`)
)

// Node is a single alter: an up-file and its implied down-file.
//
// BackRef holds the raw ref read from the header. Parent is only set once
// the node has been validated as part of a Chain.
type Node struct {
	ID         string
	BackRef    string
	Parent     *Node
	Filename   string
	Meta       map[string]string
	RequireEnv []string
	SkipEnv    []string

	// Applied is set per invocation by callers that have consulted the
	// history store. It is never persisted.
	Applied bool
}

// DownFilename returns the name of the down-file paired with this node.
func (n *Node) DownFilename() string {
	return strings.TrimSuffix(n.Filename, consts.UpSuffix) + consts.DownSuffix
}

// FilenameFor returns the up or down filename.
func (n *Node) FilenameFor(dir Direction) string {
	if dir == Down {
		return n.DownFilename()
	}

	return n.Filename
}

// Path joins the up or down filename with dir.
func (n *Node) Path(dir string, direction Direction) string {
	return filepath.Join(dir, n.FilenameFor(direction))
}

// Name is the filename without the ref prefix and the direction suffix.
func (n *Node) Name() string {
	return directionSuffix.ReplaceAllString(refPrefix.ReplaceAllString(n.Filename, ""), "")
}

// ShouldRun reports whether the alter applies to env. An empty env runs
// everything.
func (n *Node) ShouldRun(env string) bool {
	if env == "" {
		return true
	}

	if len(n.RequireEnv) > 0 {
		return slices.Contains(n.RequireEnv, env)
	}

	if len(n.SkipEnv) > 0 {
		return !slices.Contains(n.SkipEnv, env)
	}

	return true
}

// String renders the node the way `list` prints it.
func (n *Node) String() string {
	var sb strings.Builder
	if n.BackRef != "" {
		sb.WriteString("-> ")
	} else {
		sb.WriteString("   ")
	}

	if n.Applied {
		sb.WriteString("*")
	} else {
		sb.WriteString(" ")
	}

	sb.WriteString("[" + n.ID + "] " + n.Name())
	return sb.String()
}
