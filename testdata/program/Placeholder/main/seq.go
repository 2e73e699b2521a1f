//go:build cfgpanic

package main

import (
	"errors"
	"iter"
)

//cfgpanic:gate feature
//cfgpanic:return "iter.Seq[int]"
func Count(n int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := range n {
			if !yield(i) {
				return
			}
		}
	}
}

//cfgpanic:gate feature
//cfgpanic:return "int, error"
func Div(a, b int) (int, error) {
	if b == 0 {
		return 0, errors.New("division by zero")
	}
	return a / b, nil
}
