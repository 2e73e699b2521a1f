package codefmt_test

import (
	"errors"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/packages"

	"github.com/sublee/cfgpanic/internal/codefmt"
)

type pkger struct{}

func (pkger) Pkg() *packages.Package {
	var pkg packages.Package
	pkg.Fset = token.NewFileSet()
	f := pkg.Fset.AddFile("tmpl.go", -1, 100)
	f.AddLine(10)
	f.AddLine(20)
	return &pkg
}

type poser struct{ pos int }

func (p poser) Pos() token.Pos { return token.Pos(p.pos) }

type span struct{ pos, end int }

func (s span) Pos() token.Pos { return token.Pos(s.pos) }
func (s span) End() token.Pos { return token.Pos(s.end) }

func TestErrorfWithoutPosition(t *testing.T) {
	err := codefmt.Errorf(nil, nil, "no position")
	assert.Equal(t, "no position", err.Error())

	// A position without a file set cannot be printed.
	err = codefmt.Errorf(nil, poser{1}, "no file set")
	assert.Equal(t, "no file set", err.Error())
}

func TestErrorfPosition(t *testing.T) {
	err := codefmt.Errorf(pkger{}, poser{11}, "missing build constraint after //cfgpanic:%s", "gate")
	assert.Equal(t, "tmpl.go:2:1: missing build constraint after //cfgpanic:gate", err.Error())
	assert.EqualError(t, errors.Unwrap(err), "missing build constraint after //cfgpanic:gate")

	var codeErr *codefmt.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, token.Pos(11), codeErr.Pos())
	assert.False(t, codeErr.End().IsValid())
}

func TestErrorfSpan(t *testing.T) {
	err := codefmt.Errorf(pkger{}, span{1, 5}, "span")

	var codeErr *codefmt.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, token.Pos(1), codeErr.Pos())
	assert.Equal(t, token.Pos(5), codeErr.End())
}

func TestErrorfCannotWrap(t *testing.T) {
	assert.Panics(t, func() {
		_ = codefmt.Errorf(pkger{}, poser{1}, "error: %w", assert.AnError)
	})
}

func TestCodeErrors(t *testing.T) {
	a := codefmt.Errorf(pkger{}, poser{1}, "a")
	b := codefmt.Errorf(pkger{}, poser{11}, "b")
	c := codefmt.Errorf(pkger{}, poser{21}, "c")

	codeErrs, rest := codefmt.CodeErrors(errors.Join(a, errors.Join(b, assert.AnError), c))
	require.Len(t, codeErrs, 3)
	assert.Equal(t, "tmpl.go:1:1: a", codeErrs[0].Error())
	assert.Equal(t, "tmpl.go:2:1: b", codeErrs[1].Error())
	assert.Equal(t, "tmpl.go:3:1: c", codeErrs[2].Error())
	assert.Equal(t, []error{assert.AnError}, rest)

	codeErrs, rest = codefmt.CodeErrors(nil)
	assert.Empty(t, codeErrs)
	assert.Empty(t, rest)
}
