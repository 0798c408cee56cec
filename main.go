package main

import (
	"os"

	"github.com/penwyp/go-trend-sift/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
