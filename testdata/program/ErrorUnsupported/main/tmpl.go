//go:build cfgpanic

package main

//cfgpanic:gate feature
var Flag = true

//cfgpanic:gate feature
const Limit = 1
