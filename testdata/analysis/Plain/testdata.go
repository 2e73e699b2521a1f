//go:build cfgpanic

package testdata

//cfgpanic:return "int" // want `//cfgpanic:return without //cfgpanic:gate is ignored`
func F() int { return 1 }

// G is plain.
func G() int { return 2 } // ok
