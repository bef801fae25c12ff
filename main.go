package main

import "github.com/agentic-research/catsieve/cmd"

func main() {
	cmd.Execute()
}
