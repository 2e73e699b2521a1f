//go:build cfgpanic && !windows

package lib

import "os"

// Hostname reports the host name.
//
//cfgpanic:gate feature || tools
func Hostname() (string, error) {
	return os.Hostname()
}

func Name() string { return "lib" }
