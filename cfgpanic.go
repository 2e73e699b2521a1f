// Package cfgpanic gates optional capabilities behind build constraints
// without taking them out of the API.
//
// A function guarded by a plain build constraint disappears from the build
// when the constraint is false, so every caller has to be guarded too.
// Cfgpanic keeps the declaration in both configurations instead: when the
// constraint holds, the original body is compiled; otherwise the body is
// replaced by a stub which panics with a message naming the function and the
// constraint.
//
// To start with Cfgpanic, add a build constraint to the template files
// containing Cfgpanic directives:
//
//	//go:build cfgpanic
//
// Then gate a function, the methods of a type, or a whole file with the gate
// directive. The directive text is a regular //go:build expression:
//
//	//cfgpanic:gate sqlite
//	func OpenCache(path string) (*Cache, error) {
//		return openSQLite(path)
//	}
//
// After writing templates, run the cfgpanic command. It will generate a pair
// of files for each gate next to the template:
//
//	go run github.com/sublee/cfgpanic/cmd/cfgpanic
//
// The generated pair looks like this (simplified):
//
//	// cache_cfgpanic_sqlite_on.go
//	//go:build !cfgpanic && sqlite
//	func OpenCache(path string) (*Cache, error) {
//		return openSQLite(path)
//	}
//
//	// cache_cfgpanic_sqlite_off.go
//	//go:build !cfgpanic && !sqlite
//	//nolint:unparam,revive
//	func OpenCache(path string) (*Cache, error) {
//		panic("function 'OpenCache' unimplemented unless //go:build sqlite is activated")
//	}
//
// # Gates
//
// The gate directive is accepted on three kinds of declarations:
//
//   - a function or a method,
//   - a single defined type: all methods of the type declared in the same
//     file are gated, the type itself is kept in both configurations,
//   - the package clause of a file: every declaration of the file is gated.
//     Declarations which cannot be gated, such as constants, are kept as they
//     are.
//
// Anything else is reported as an error.
//
// # Placeholder results
//
// A stub never returns, so it needs no result value. Linters and readers
// sometimes want a typed value anyway. The return directive declares the
// result types the stub pretends to produce:
//
//	//cfgpanic:gate fancy
//	//cfgpanic:return "iter.Seq[int]"
//	func Numbers() iter.Seq[int] { ... }
//
// # Build tags
//
// Templates are loaded and type-checked with the cfgpanic tag only. Gate
// predicates are not added. When an enabled body refers to a helper declared
// in a file with its own build constraint, pass the helper's tags too:
//
//	go run github.com/sublee/cfgpanic/cmd/cfgpanic -b sqlite
package cfgpanic

// Tag is the build tag of template files. Generated files are constrained
// with its negation.
const Tag = "cfgpanic"

// Directive names recognized in doc comments.
const (
	DirectivePrefix = "//cfgpanic:"

	// DirectiveGate gates the declaration behind a build constraint.
	DirectiveGate = "gate"

	// DirectiveReturn declares placeholder result types for the stub.
	DirectiveReturn = "return"
)

// Directives lists all known directive names.
var Directives = []string{DirectiveGate, DirectiveReturn}
