package main

import (
	"os"

	"github.com/caserelay/caserelay/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
