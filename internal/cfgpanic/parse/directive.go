package parse

import (
	"go/ast"
	"go/token"
	"slices"
	"strings"

	"github.com/sublee/cfgpanic"
)

// Directive is a "//cfgpanic:NAME VALUE" comment line.
type Directive struct {
	// Name is the directive name. It may be unknown.
	Name string

	// Value is the rest of the line with surrounding spaces trimmed.
	Value string

	Comment *ast.Comment
}

func (d Directive) Pos() token.Pos { return d.Comment.Pos() }
func (d Directive) End() token.Pos { return d.Comment.End() }

// ParseDirective parses a comment as a Cfgpanic directive. It returns false
// if the comment is not a directive.
func ParseDirective(c *ast.Comment) (Directive, bool) {
	rest, ok := strings.CutPrefix(c.Text, cfgpanic.DirectivePrefix)
	if !ok {
		return Directive{}, false
	}

	name, value := rest, ""
	if i := strings.IndexAny(rest, " \t"); i != -1 {
		name, value = rest[:i], rest[i+1:]
	}
	return Directive{
		Name:    name,
		Value:   strings.TrimSpace(value),
		Comment: c,
	}, true
}

// Directives collects Cfgpanic directives in a doc comment.
func Directives(doc *ast.CommentGroup) []Directive {
	if doc == nil {
		return nil
	}

	var ds []Directive
	for _, c := range doc.List {
		if d, ok := ParseDirective(c); ok {
			ds = append(ds, d)
		}
	}
	return ds
}

// IsDirective reports whether the comment is a Cfgpanic directive.
func IsDirective(c *ast.Comment) bool {
	return strings.HasPrefix(c.Text, cfgpanic.DirectivePrefix)
}

// DocLines returns the lines of the doc comment without Cfgpanic directives.
func DocLines(doc *ast.CommentGroup) []string {
	if doc == nil {
		return nil
	}
	var lines []string
	for _, c := range doc.List {
		if !IsDirective(c) {
			lines = append(lines, c.Text)
		}
	}
	return TrimDoc(lines)
}

// TrimDoc drops the empty "//" lines at the end of the doc comment lines.
// They used to separate the directives from the text above.
func TrimDoc(lines []string) []string {
	for len(lines) != 0 && strings.TrimSpace(lines[len(lines)-1]) == "//" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil
	}
	return slices.Clip(lines)
}
