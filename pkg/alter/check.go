package alter

import (
	"io/fs"
	"log/slog"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/schematool/pkg/consts"
)

// Check builds the chain from fsys and runs every consistency check against
// it: structural validation, abandoned up-files, up/down pairing and shared
// header values. The validated chain is returned on success.
func Check(fsys fs.FS) (*Chain, error) {
	warnNonStandard(fsys)

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

	if err := CheckAbandoned(chain, files); err != nil {
		return nil, err
	}

	if err := CheckPairs(fsys, files); err != nil {
		return nil, err
	}

	if err := CheckPairHeaders(fsys, chain); err != nil {
		return nil, err
	}

	return chain, nil
}

// CheckAbandoned returns an AbandonedAlterError for the first up-file in
// files that is not part of chain.
func CheckAbandoned(chain *Chain, files []string) error {
	inChain := make(map[string]bool, chain.Len())
	for _, n := range chain.Nodes() {
		inChain[n.Filename] = true
	}

	for _, f := range files {
		if strings.HasSuffix(f, consts.UpSuffix) && !inChain[f] {
			return &AbandonedAlterError{Filename: f}
		}
	}

	return nil
}

// CheckPairs verifies that every up-file has a down-file and vice versa.
func CheckPairs(fsys fs.FS, files []string) error {
	for _, f := range files {
		switch {
		case strings.HasSuffix(f, consts.UpSuffix):
			down := strings.TrimSuffix(f, consts.UpSuffix) + consts.DownSuffix
			if !exists(fsys, down) {
				return &MissingDownAlterError{Filename: f, Expected: down}
			}
		case strings.HasSuffix(f, consts.DownSuffix):
			up := strings.TrimSuffix(f, consts.DownSuffix) + consts.UpSuffix
			if !exists(fsys, up) {
				return &MissingUpAlterError{Filename: f, Expected: up}
			}
		}
	}

	return nil
}

// CheckPairHeaders verifies that each down-file agrees with its up-file on
// ref, backref, require-env and skip-env.
func CheckPairHeaders(fsys fs.FS, chain *Chain) error {
	for _, n := range chain.Nodes() {
		header, err := readHeaderFile(fsys, n.DownFilename())
		if err != nil {
			return err
		}

		if header.Direction != Down {
			return &ConfigError{Filename: n.DownFilename(), Msg: "down-file must declare '-- direction: down'"}
		}

		for _, key := range []string{KeyRef, KeyBackRef} {
			if n.Meta[key] != header.Meta[key] {
				return &MismatchedPairError{Filename: n.Filename, Key: key, Up: n.Meta[key], Down: header.Meta[key]}
			}
		}

		down := &Node{Filename: n.DownFilename(), Meta: header.Meta}
		if err := applyEnv(down); err != nil {
			return err
		}

		if !sameEnvs(n.RequireEnv, down.RequireEnv) {
			return &MismatchedPairError{
				Filename: n.Filename,
				Key:      KeyRequireEnv,
				Up:       n.Meta[KeyRequireEnv],
				Down:     header.Meta[KeyRequireEnv],
			}
		}

		if !sameEnvs(n.SkipEnv, down.SkipEnv) {
			return &MismatchedPairError{
				Filename: n.Filename,
				Key:      KeySkipEnv,
				Up:       n.Meta[KeySkipEnv],
				Down:     header.Meta[KeySkipEnv],
			}
		}
	}

	return nil
}

func sameEnvs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for _, env := range a {
		if !slices.Contains(b, env) {
			return false
		}
	}

	return true
}

func exists(fsys fs.FS, name string) bool {
	_, err := fs.Stat(fsys, name)
	return err == nil
}

func warnNonStandard(fsys fs.FS) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		slog.Debug("Unable to list alter directory", "err", errors.Cause(err))
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasSuffix(name, ".sql") && !consts.FilenameStandard.MatchString(name) {
			slog.Warn("File does not follow the alter naming standard", "file", name)
		}
	}
}
