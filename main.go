// Package main is the entry point for shotrec.
package main

import (
	"fmt"
	"os"

	"github.com/shotrec/shotrec/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
