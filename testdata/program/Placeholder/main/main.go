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
	try(func() {
		for i := range Count(3) {
			fmt.Println(i)
		}
	})
	try(func() { fmt.Println(Div(6, 3)) })
	try(func() { fmt.Println(Div(1, 0)) })
}
