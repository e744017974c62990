package resolver

import "fmt"

type (
	// ArgsError means the command was called without something to resolve.
	ArgsError struct {
		Msg string
	}

	// NotFoundError means the argument is neither an alter file nor a ref in
	// the alter directory.
	NotFoundError struct {
		Target string
	}

	// InternalError means the alters are not in a shape resolve can fix, such
	// as a sub-chain that itself branches or no single tail to move behind.
	InternalError struct {
		Msg string
	}
)

func (e *ArgsError) Error() string {
	return e.Msg
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Filename or reference not found for '%s'", e.Target)
}

func (e *InternalError) Error() string {
	return "error resolving: " + e.Msg
}
