package alter

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type (
	// HeadError is returned when a non-empty alter set has zero or more than
	// one head (an alter without a backref).
	HeadError struct {
		Filenames []string
	}

	// DuplicateRefsError is returned when a backref names a ref carried by
	// more than one alter, or when more than one alter ends the chain.
	DuplicateRefsError struct {
		Ref       string
		Filenames []string
	}

	// DivergentBranchError is returned when two or more alters share the same
	// parent. The `resolve` command fixes this.
	DivergentBranchError struct {
		Parent    string
		Filenames []string
	}

	// MissingRefError is returned when a backref points at a ref that no alter
	// carries.
	MissingRefError struct {
		Ref      string
		Filename string
	}

	// CircularRefError is returned when the backrefs form a loop.
	CircularRefError struct {
		Filenames []string
	}

	// MissingUpAlterError is returned when a down-file has no up-file.
	MissingUpAlterError struct {
		Filename string
		Expected string
	}

	// MissingDownAlterError is returned when an up-file has no down-file.
	MissingDownAlterError struct {
		Filename string
		Expected string
	}

	// AbandonedAlterError is returned for an up-file that is not part of the
	// validated chain.
	AbandonedAlterError struct {
		Filename string
	}

	// MismatchedPairError is returned when an up-file and its down-file
	// disagree on a header value that must be shared.
	MismatchedPairError struct {
		Filename string
		Key      string
		Up       string
		Down     string
	}

	// ConfigError is returned for invalid header metadata, such as bad env
	// names or require-env and skip-env on the same alter.
	ConfigError struct {
		Filename string
		Msg      string
	}
)

func (e *HeadError) Error() string {
	if len(e.Filenames) == 0 {
		return "No head found"
	}

	return "More than one head found:\n  " + strings.Join(e.Filenames, "\n  ")
}

// Unwrap reports a headless alter set as circular, since every alter having a
// parent means the backrefs must loop.
func (e *HeadError) Unwrap() error {
	if len(e.Filenames) == 0 {
		return &CircularRefError{}
	}

	return nil
}

func (e *DuplicateRefsError) Error() string {
	if e.Ref == "" {
		return "Duplicate backref found in:\n  " + strings.Join(e.Filenames, "\n  ")
	}

	return fmt.Sprintf("Duplicate refs (%s) found in:\n  %s", e.Ref, strings.Join(e.Filenames, "\n  "))
}

func (e *DivergentBranchError) Error() string {
	var sb strings.Builder
	sb.WriteString("Divergent Branch:\n")
	sb.WriteString("This means that we have found alters that share a common parent. To fix\n")
	sb.WriteString("this you can run the 'resolve' command. When merging changes from your\n")
	sb.WriteString("feature-branch, ensure that you resolve your files that are in conflict\n")
	sb.WriteString("(not existing files that were previously in a good state).\n\n")
	for _, f := range e.Filenames {
		fmt.Fprintf(&sb, "\tDuplicate backref found (divergent branch): %s\n", f)
	}

	return strings.TrimRight(sb.String(), "\n")
}

func (e *MissingRefError) Error() string {
	return fmt.Sprintf("Backref points to non-existent alter: %s (%s)", e.Filename, e.Ref)
}

func (e *CircularRefError) Error() string {
	if len(e.Filenames) == 0 {
		return "no last alter found (circular references)"
	}

	return "circular references found in:\n  " + strings.Join(e.Filenames, "\n  ")
}

func (e *MissingUpAlterError) Error() string {
	return fmt.Sprintf("no up-file found for '%s', expected '%s'", e.Filename, e.Expected)
}

func (e *MissingDownAlterError) Error() string {
	return fmt.Sprintf("no down-file found for '%s', expected '%s'", e.Filename, e.Expected)
}

func (e *AbandonedAlterError) Error() string {
	return fmt.Sprintf("File not found within build-chain '%s'", e.Filename)
}

func (e *MismatchedPairError) Error() string {
	return fmt.Sprintf("'%s' values for %s do not match (%q and %q)", e.Key, e.Filename, e.Up, e.Down)
}

func (e *ConfigError) Error() string {
	if e.Filename == "" {
		return e.Msg
	}

	return fmt.Sprintf("%s: %s", e.Filename, e.Msg)
}

// IsStructural reports whether err describes an invalid chain on disk.
func IsStructural(err error) bool {
	var (
		head     *HeadError
		dup      *DuplicateRefsError
		div      *DivergentBranchError
		missing  *MissingRefError
		circular *CircularRefError
	)

	return errors.As(err, &head) ||
		errors.As(err, &dup) ||
		errors.As(err, &div) ||
		errors.As(err, &missing) ||
		errors.As(err, &circular)
}

// IsPairing reports whether err describes an up/down file pairing problem.
func IsPairing(err error) bool {
	var (
		up   *MissingUpAlterError
		down *MissingDownAlterError
		mis  *MismatchedPairError
	)

	return errors.As(err, &up) || errors.As(err, &down) || errors.As(err, &mis)
}
