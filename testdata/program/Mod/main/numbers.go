//go:build cfgpanic

// Number formatting only available with the feature.
//
//cfgpanic:gate feature
package main

import "strconv"

// Base is kept in both configurations.
const Base = 10

// Double is kept as it is because its placeholder is broken.
//
//cfgpanic:return "not a type("
func Double(n int) int { return n * 2 }

func Parse(s string) (int, error) {
	n, err := strconv.ParseInt(s, Base, 64)
	return int(n), err
}

func Format(n int) string {
	return strconv.FormatInt(int64(n), Base)
}
