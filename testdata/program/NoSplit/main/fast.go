//go:build cfgpanic

package main

//cfgpanic:gate feature
//go:nosplit
func Inc(x int) int { return x + 1 }
