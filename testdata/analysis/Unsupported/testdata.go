//go:build cfgpanic

package testdata

//cfgpanic:gate linux
var V = 1 // want `//cfgpanic:gate can only be used on functions, methods of defined types, and files, not variables`

//cfgpanic:gate linux
const C = 1 // want `not constants`

//cfgpanic:gate linux
type A = int // want `not type aliases`

//cfgpanic:gate linux
type I interface{ M() } // want `not interface types`

//cfgpanic:gate linux
type ( // want `not grouped type declarations`
	X int
	Y int
)

//cfgpanic:gate linux
type T struct{} // ok

func (T) M() {} // ok

//cfgpanic:gate linux
func F() {} // ok
