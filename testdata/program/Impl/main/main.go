package main

import (
	"fmt"

	"github.com/sublee/cfgpanic/pkg/cfgpanicerrors"
)

func try(f func()) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		u, ok := cfgpanicerrors.Parse(r)
		if !ok {
			panic(r)
		}
		fmt.Printf("disabled: %s (%s)\n", u.Func, u.Predicate)
	}()
	f()
}

func main() {
	var c Counter
	try(func() { c.Add(2) })
	try(func() { fmt.Println(c.String()) })
}
