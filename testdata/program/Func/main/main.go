package main

import "fmt"

func try(f func()) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Println("panic:", r)
		}
	}()
	f()
}

func main() {
	fmt.Println(Whisper("HELLO"))
	try(func() { fmt.Println(Shout("hello")) })
}
