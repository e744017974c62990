package project

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing/fstest"

	"github.com/pkg/errors"
	"github.com/pseudomuto/schematool/pkg/config"
	"github.com/pseudomuto/schematool/pkg/consts"
)

// DefaultConfigFile is the config file written by Initialize.
const DefaultConfigFile = "schema.yaml"

var (
	//go:embed embed/schema.yaml
	defaultConfig []byte

	image = fstest.MapFS{
		"alters":          {Mode: os.ModeDir | consts.ModeDir},
		DefaultConfigFile: {Data: defaultConfig},
	}
)

// Project is a directory managed by schematool.
type Project struct {
	root string
}

// New creates a new Project rooted at path. The directory must exist.
//
// Example:
//
//	p := project.New(".")
//	created, err := p.Initialize()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if created {
//		fmt.Println("edit schema.yaml and run `schema init` again")
//	}
func New(path string) *Project {
	return &Project{root: path}
}

// Initialize writes a default schema.yaml and an alters directory when the
// project has no config file. Existing files are never touched. It reports
// whether anything was written.
func (p *Project) Initialize() (bool, error) {
	if err := p.ensureDirectory(); err != nil {
		return false, err
	}

	if _, ok := config.Discover(p.root); ok {
		return false, nil
	}

	created := false
	for path, entry := range image {
		fullPath := filepath.Join(p.root, path)

		if _, err := os.Stat(fullPath); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return created, errors.Wrapf(err, "failed to stat %s", fullPath)
		}

		if entry.Mode.IsDir() {
			if err := os.MkdirAll(fullPath, entry.Mode.Perm()); err != nil {
				return created, errors.Wrapf(err, "failed to create directory %s", fullPath)
			}

			created = true
			continue
		}

		if err := os.WriteFile(fullPath, entry.Data, consts.ModeFile); err != nil {
			return created, errors.Wrapf(err, "failed to write file %s", fullPath)
		}

		created = true
	}

	return created, nil
}

// InstallHook links hook as the pre-commit hook of the nearest git
// repository at or above the project root. A relative hook is resolved
// against the project root. An existing hook pointing elsewhere is replaced.
func (p *Project) InstallHook(hook string, out io.Writer) error {
	root, err := filepath.Abs(p.root)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve %s", p.root)
	}

	repo, err := FindGitRoot(root)
	if err != nil {
		return err
	}

	source := hook
	if !filepath.IsAbs(source) {
		source = filepath.Join(root, hook)
	}

	hooksDir := filepath.Join(repo, ".git", "hooks")
	dest := filepath.Join(hooksDir, "pre-commit")

	_, _ = fmt.Fprintf(out, "Setup git pre-commit hook: \n\t%s\n\t-> %s\n", dest, source)

	if target, err := os.Readlink(dest); err == nil {
		if target == source {
			return nil
		}

		if err := os.Remove(dest); err != nil {
			return errors.Wrapf(err, "failed to remove existing hook %s", dest)
		}
	}

	if err := os.MkdirAll(hooksDir, consts.ModeDir); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", hooksDir)
	}

	if err := os.Symlink(source, dest); err != nil {
		return errors.Wrapf(err, "failed to link pre-commit hook %s", dest)
	}

	return nil
}

// FindGitRoot walks up from dir to the first directory containing .git.
func FindGitRoot(dir string) (string, error) {
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("No .git directory found for pre-commit hook")
		}

		dir = parent
	}
}

func (p *Project) ensureDirectory() error {
	dir, err := os.Stat(p.root)
	if err != nil {
		return errors.Wrapf(err, "failed to stat dir: %s", p.root)
	}

	if !dir.IsDir() {
		return errors.Errorf("%s is not a directory", p.root)
	}

	return nil
}
