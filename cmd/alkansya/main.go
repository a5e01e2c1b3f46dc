package main

import (
	"os"

	"alkansya/cmd/alkansya/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
