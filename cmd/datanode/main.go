package main

import (
	"os"

	"github.com/Lovepreet67/whispering-woods/cmd/datanode/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
