package main

import "github.com/pfrederiksen/nba-boxscores/internal/cli"

func main() {
	cli.Execute()
}
