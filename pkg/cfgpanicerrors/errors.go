// Package cfgpanicerrors describes the panics raised by disabled functions.
//
// Generated stubs do not import this package. They panic with a plain string
// built by [Message], so the generated code has no dependency on Cfgpanic.
// Tests of user code can recognize such panics with [Parse]:
//
//	defer func() {
//		u, ok := cfgpanicerrors.Parse(recover())
//		if ok {
//			t.Skipf("%s is disabled", u.Func)
//		}
//	}()
package cfgpanicerrors

import (
	"fmt"
	"regexp"
)

// Bare is the panic value of stubs which cannot carry a detailed message,
// such as //go:nosplit functions.
const Bare = "unimplemented"

// Message returns the panic value of a disabled function.
func Message(name, predicate string) string {
	return fmt.Sprintf("function '%s' unimplemented unless //go:build %s is activated", name, predicate)
}

var reMessage = regexp.MustCompile(`^function '([^']*)' unimplemented unless //go:build (.+) is activated$`)

// Unimplemented describes a panic raised by a disabled function. Func and
// Predicate are empty for a [Bare] panic.
type Unimplemented struct {
	Func      string
	Predicate string
}

func (u Unimplemented) Error() string {
	if u.Func == "" {
		return Bare
	}
	return Message(u.Func, u.Predicate)
}

// Parse recognizes a recovered panic value raised by a disabled function.
func Parse(recovered any) (Unimplemented, bool) {
	var s string
	switch r := recovered.(type) {
	case string:
		s = r
	case error:
		s = r.Error()
	default:
		return Unimplemented{}, false
	}

	if s == Bare {
		return Unimplemented{}, true
	}

	m := reMessage.FindStringSubmatch(s)
	if m == nil {
		return Unimplemented{}, false
	}
	return Unimplemented{Func: m[1], Predicate: m[2]}, true
}
