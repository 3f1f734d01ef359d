package main

import "github.com/bartonlees/aforge/cmd/aforge/commands"

func main() {
	commands.Execute()
}
