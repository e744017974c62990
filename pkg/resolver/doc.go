// Package resolver fixes divergent branches in the alter chain.
//
// When two alters name the same backref (usually after merging two branches
// that each added an alter) the chain no longer validates. Resolve takes one
// side of the divergence, by file or ref, and moves it and every alter that
// follows it behind the tail of the other side. Each moved alter gets a new
// ref: its files are renamed and their ref/backref headers rewritten. When
// configured, the renames are staged with git and static copies are
// regenerated.
package resolver
