package main

import (
	"fmt"
	"os"

	"github.com/apoorv/socratic/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
