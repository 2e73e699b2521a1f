package main

import "fmt"

func main() {
	fmt.Println(Flag, Limit)
}
