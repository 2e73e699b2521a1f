//go:build cfgpanic

package testdata

//cfgpanic:gate linux
//cfgpanic:retrun "int" // want `unknown directive //cfgpanic:retrun, did you mean //cfgpanic:return\?`
func F() int { return 1 }

//cfgpanic:gate linux
//cfgpanic:return "int" // ok
//cfgpanic:return "int" // want `duplicate //cfgpanic:return overrides the previous one`
func G() int { return 1 }

//cfgpanic:gate linux
//cfgpanic:return "int)" // want `invalid placeholder type "int\)"`
func H() int { return 1 }

//cfgpanic:gate linux
//cfgpanic:return "x int" // want `placeholder type "x int" must not name the result x`
func I() int { return 1 }

//cfgpanic:gate linux
//cfgpanic:return int // want `expected a string literal`
func J() int { return 1 }

//cfgpanic:gate linux
//cfgpanic:return "int" // ok
func K() int { return 1 }
