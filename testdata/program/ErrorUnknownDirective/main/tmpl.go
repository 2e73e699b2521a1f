//go:build cfgpanic

package main

//cfgpanic:gate feature
//cfgpanic:retrun "int"
func One() int { return 1 }
