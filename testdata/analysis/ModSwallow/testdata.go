//go:build cfgpanic

// Failures inside a gated file are not reported. The failed declarations are
// kept as they are.
//
//cfgpanic:gate linux
package testdata

var V = 1 // ok

const C = 1 // ok

//cfgpanic:return "int)" // ok
func F() int { return 1 }

func G() int { return V + C } // ok
