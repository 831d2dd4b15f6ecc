package main

import (
	"os"

	"github.com/passagedb/passage/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
