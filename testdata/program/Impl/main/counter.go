//go:build cfgpanic

package main

import "fmt"

// Counter counts things.
//
//cfgpanic:gate feature
type Counter struct{ n int }

func (c *Counter) Add(d int) { c.n += d }

func (c Counter) String() string { return fmt.Sprintf("Counter(%d)", c.n) }
