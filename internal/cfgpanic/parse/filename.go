package parse

import (
	"go/build/constraint"
	"path/filepath"
	"strings"
)

// GOOS and GOARCH values the go command recognizes in file name suffixes.
var (
	knownOS = map[string]bool{
		"aix": true, "android": true, "darwin": true, "dragonfly": true,
		"freebsd": true, "hurd": true, "illumos": true, "ios": true,
		"js": true, "linux": true, "nacl": true, "netbsd": true,
		"openbsd": true, "plan9": true, "solaris": true, "wasip1": true,
		"windows": true, "zos": true,
	}
	knownArch = map[string]bool{
		"386": true, "amd64": true, "amd64p32": true, "arm": true,
		"armbe": true, "arm64": true, "arm64be": true, "loong64": true,
		"mips": true, "mipsle": true, "mips64": true, "mips64le": true,
		"mips64p32": true, "mips64p32le": true, "ppc": true, "ppc64": true,
		"ppc64le": true, "riscv": true, "riscv64": true, "s390": true,
		"s390x": true, "sparc": true, "sparc64": true, "wasm": true,
	}
)

// FileNameConstraint returns the constraint implied by the name of a Go
// file, and whether it is a test file. The constraint is nil if the name
// implies no GOOS nor GOARCH.
//
//	log.go               => nil
//	log_linux.go         => linux
//	log_linux_amd64.go   => linux && amd64
//	log_arm64_test.go    => arm64 (test)
//	linux.go             => nil
func FileNameConstraint(name string) (constraint.Expr, bool) {
	name = filepath.Base(name)
	test := strings.HasSuffix(name, "_test.go")

	name, _, _ = strings.Cut(name, ".")
	i := strings.Index(name, "_")
	if i < 0 {
		return nil, test
	}

	// The part before the first "_" never counts.
	l := strings.Split(name[i:], "_")
	if n := len(l); n > 0 && l[n-1] == "test" {
		l = l[:n-1]
	}

	n := len(l)
	if n >= 2 && knownOS[l[n-2]] && knownArch[l[n-1]] {
		return And(&constraint.TagExpr{Tag: l[n-2]}, &constraint.TagExpr{Tag: l[n-1]}), test
	}
	if n >= 1 && (knownOS[l[n-1]] || knownArch[l[n-1]]) {
		return &constraint.TagExpr{Tag: l[n-1]}, test
	}
	return nil, test
}
