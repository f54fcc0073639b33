package main

import "github.com/krishkalaria12/recipe-serve/cmd"

func main() {
	cmd.Execute()
}
