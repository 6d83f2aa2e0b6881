package main

import "github.com/agenthist/agenthist/cmd/agenthist/commands"

func main() {
	commands.Execute()
}
