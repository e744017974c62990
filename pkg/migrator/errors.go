package migrator

import "fmt"

type (
	// MissingDownAlterError means history names a ref that has no alter in
	// the current chain, so there is nothing to run to revert it.
	MissingDownAlterError struct {
		Ref string
	}

	// MultipleDownAltersError means more than one alter carries the same ref.
	MultipleDownAltersError struct {
		Ref string
	}

	// MissingRefError means a target ref is not among the alters that would run.
	MissingRefError struct {
		Ref string
	}

	// UnknownRefError means a ref given on the command line is not in the chain.
	UnknownRefError struct {
		Ref string
	}

	// OptionsError reports an invalid combination of arguments.
	OptionsError struct {
		Msg string
	}
)

func (e *MissingDownAlterError) Error() string {
	return fmt.Sprintf("missing alter: %s", e.Ref)
}

func (e *MultipleDownAltersError) Error() string {
	return fmt.Sprintf("Multiple alters found for a single id (%s)", e.Ref)
}

func (e *MissingRefError) Error() string {
	return fmt.Sprintf("revision (%s) not found in alters that would be run", e.Ref)
}

func (e *UnknownRefError) Error() string {
	return fmt.Sprintf("Ref '%s' could not be found", e.Ref)
}

func (e *OptionsError) Error() string {
	return e.Msg
}
