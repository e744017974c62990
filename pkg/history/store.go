package history

import (
	"context"
	"slices"
	"time"
)

type (
	// Entry is a single applied alter as recorded by a Store. Sequence orders
	// entries by the time they were applied.
	Entry struct {
		Sequence  int64
		Ref       string
		AppliedAt time.Time
	}

	// Queries renders the literal statements a Store would run to record or
	// forget an alter. They are embedded into generated SQL and static alter
	// copies.
	Queries interface {
		AppendCommitQuery(ref string) string
		RemoveCommitQuery(ref string) string
	}

	// Store is the ledger of applied alters kept inside the target database.
	//
	// Callers are responsible for not recording the same ref twice.
	Store interface {
		Queries

		// Init creates the revision schema/database and the history table.
		// When force is set any existing history is dropped first.
		Init(ctx context.Context, force bool) error

		// CommitHistory returns every entry in storage order. Callers sort.
		CommitHistory(ctx context.Context) ([]Entry, error)

		// AppliedAlters returns the refs of every applied alter.
		AppliedAlters(ctx context.Context) ([]string, error)

		AppendCommit(ctx context.Context, ref string) error
		RemoveCommit(ctx context.Context, ref string) error

		Close() error
	}
)

// SortAscending orders entries oldest first.
func SortAscending(entries []Entry) []Entry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b Entry) int {
		return compareSequence(a.Sequence, b.Sequence)
	})

	return out
}

// SortDescending orders entries most recent first.
func SortDescending(entries []Entry) []Entry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b Entry) int {
		return compareSequence(b.Sequence, a.Sequence)
	})

	return out
}

// Refs returns the ref of each entry, preserving order.
func Refs(entries []Entry) []string {
	refs := make([]string, len(entries))
	for i, e := range entries {
		refs[i] = e.Ref
	}

	return refs
}

func compareSequence(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
