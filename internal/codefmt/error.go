package codefmt

import (
	"fmt"
	"go/token"
)

// CodeError is an error located in a template file. Its message starts with
// "file:line:col: " when the position is known.
type CodeError struct {
	err  error
	pos  token.Pos
	end  token.Pos
	fset *token.FileSet
}

// Unwrap returns the message without the position.
func (e CodeError) Unwrap() error { return e.err }

// Pos returns the position where the error occurred. It may be invalid.
func (e CodeError) Pos() token.Pos { return e.pos }

// End returns the end position of the error. It may be invalid. Diagnostics
// underline the range between Pos and End.
func (e CodeError) End() token.Pos { return e.end }

func (e CodeError) Error() string {
	if e.err == nil {
		return ""
	}
	if !e.pos.IsValid() || e.fset == nil {
		return e.err.Error()
	}
	return fmt.Sprintf("%s: %s", FormatPosition(e.fset.Position(e.pos)), e.err.Error())
}

// Errorf formats an error message located at poser. If poser also implements
// [Ender], the error covers the range. Errors must not be passed as args
// because a CodeError never wraps another error.
func (f Formatter) Errorf(poser Poser, format string, args ...any) error {
	for _, arg := range args {
		if _, ok := arg.(error); ok {
			panic("CodeError cannot wrap error")
		}
	}

	var pos, end token.Pos
	if poser != nil {
		pos = poser.Pos()
		if ender, ok := poser.(Ender); ok {
			end = ender.End()
		}
	}

	args = f.wrapPrintfArgs(args)
	err := fmt.Errorf(format, args...)
	return &CodeError{err, pos, end, f.Fset}
}

// CodeErrors flattens errors joined by errors.Join and returns the code
// errors in order. Other errors are returned in rest.
func CodeErrors(err error) (codeErrs []*CodeError, rest []error) {
	if err == nil {
		return nil, nil
	}

	switch err := err.(type) {
	case *CodeError:
		return []*CodeError{err}, nil
	case interface{ Unwrap() []error }:
		for _, err := range err.Unwrap() {
			c, r := CodeErrors(err)
			codeErrs = append(codeErrs, c...)
			rest = append(rest, r...)
		}
		return codeErrs, rest
	}
	return nil, []error{err}
}
