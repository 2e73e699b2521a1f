package codefmt

import (
	"fmt"
	"go/token"
	"iter"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NS hands out unique names: local variables of a stub, or file name slugs
// of the gates in a template.
type NS map[string]struct{}

// NewNS creates a new namespace which reserves the given names.
func NewNS(names ...string) NS {
	ns := make(NS)
	for _, name := range names {
		ns.Reserve(name)
	}
	return ns
}

// Reserve marks a name as used in the namespace. If the name is already used,
// it returns false.
func (ns NS) Reserve(name string) bool {
	if _, ok := ns[name]; ok {
		return false
	}
	ns[name] = struct{}{}
	return true
}

// Name returns a unique name in the namespace and reserves it. The text is
// camel cased first, so a build constraint becomes a valid slug:
//
//	ret                => ret, ret2, ret3, ...
//	darwin || freebsd  => darwinFreebsd
//	linux && !cgo      => linuxNotCgo
//	go1.22             => go1_22, go1_22_2, ...
//
// If nothing is left of the text, fallback is used instead.
func (ns NS) Name(text, fallback string) string {
	name := CamelCase(text)
	if name == "" {
		name = CamelCase(fallback)
	}
	if name == "" {
		panic("empty fallback")
	}
	if ns == nil {
		return name
	}
	for name := range Candidates(name) {
		if !token.IsKeyword(name) && ns.Reserve(name) {
			return name
		}
	}
	panic("unreachable")
}

var title = cases.Title(language.English)

// CamelCase joins the letter and digit chunks of the text in camel case. A
// negation becomes a "not" chunk. Dots between digits become underscores.
// It returns an empty string if the text has no letters nor digits.
func CamelCase(text string) string {
	text = strings.ReplaceAll(text, "!", " not ")
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.'
	})

	var chunks []string
	for _, chunk := range fields {
		chunk = versionDots(chunk)
		if chunk == "" {
			continue
		}
		if len(chunks) != 0 {
			chunk = title.String(chunk)
		}
		chunks = append(chunks, chunk)
	}
	return strings.Join(chunks, "")
}

// versionDots replaces dots in a chunk like "go1.22" with underscores and
// drops any other dot.
func versionDots(chunk string) string {
	var b strings.Builder
	for i := 0; i < len(chunk); i++ {
		if chunk[i] != '.' {
			b.WriteByte(chunk[i])
			continue
		}
		if i > 0 && isDigit(chunk[i-1]) && i+1 < len(chunk) && isDigit(chunk[i+1]) {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

// Candidates yields the name and then its numbered alternatives.
func Candidates(name string) iter.Seq[string] {
	if name == "" {
		panic("empty name")
	}

	return func(yield func(string) bool) {
		if !yield(name) {
			return
		}

		// "amd64_2" is better than "amd642".
		sep := ""
		if isDigit(name[len(name)-1]) {
			sep = "_"
		}

		for i := 2; ; i++ {
			if !yield(fmt.Sprintf("%s%s%d", name, sep, i)) {
				return
			}
		}
	}
}
