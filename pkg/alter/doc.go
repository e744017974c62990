// Package alter builds and validates the chain of alter files in an alter
// directory.
//
// Every alter is a pair of files named `<ref>-<name>-up.sql` and
// `<ref>-<name>-down.sql`, where ref is a 12 digit token. The first few lines
// of each file carry header comments:
//
//	-- direction: up
//	-- backref: 170000000000
//	-- ref: 170000000010
//
// The backref links an alter to its predecessor. The oldest alter (the head)
// has no backref. An alter may also limit the environments it runs in with
// `-- require-env: prod,staging` or `-- skip-env: dev` (but not both).
//
// Building a chain happens in two phases. BuildSoftChain reads one Node per
// up-file with its backref left as a string, then BuildAndValidate resolves
// those strings and rejects anything that isn't a single straight line:
//
//	chain, err := alter.BuildChain(os.DirFS("alters"))
//	if err != nil {
//		var div *alter.DivergentBranchError
//		if errors.As(err, &div) {
//			// run `schema resolve` on one of div.Filenames
//		}
//		return err
//	}
//
//	for _, n := range chain.Nodes() { // tail first
//		fmt.Println(n)
//	}
//
// Check runs the same build plus the file pairing checks used by the
// `check` command and before every up or down.
package alter
