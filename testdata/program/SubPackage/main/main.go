package main

import (
	"fmt"

	"example.com/SubPackage/lib"
)

func main() {
	fmt.Println(lib.Name())

	defer func() {
		if r := recover(); r != nil {
			fmt.Println("panic:", r)
		}
	}()
	_, err := lib.Hostname()
	fmt.Println(err == nil)
}
