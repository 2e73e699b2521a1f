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
	fmt.Println(Base)
	fmt.Println(Double(2))
	try(func() { fmt.Println(Parse("42")) })
	try(func() { fmt.Println(Format(7)) })
}
