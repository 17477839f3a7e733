package main

import "github.com/strrl/stopwatch/cmd/stopwatch/commands"

func main() {
	commands.Execute()
}
