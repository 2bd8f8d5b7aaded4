package main

import (
	"os"

	"github.com/Lovepreet67/whispering-woods/cmd/wwctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
