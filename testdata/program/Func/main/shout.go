//go:build cfgpanic

package main

import "strings"

// Shout makes s loud.
//
//cfgpanic:gate feature
func Shout(s string) string {
	return strings.ToUpper(s) + "!"
}

// Whisper is not gated.
func Whisper(s string) string {
	return strings.ToLower(s)
}
