package main

import "github.com/pfrederiksen/odds-alchemist/internal/cli"

func main() {
	cli.Execute()
}
