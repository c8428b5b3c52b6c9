// Package main is the entry point for the projectsctl CLI tool.
package main

import (
	"os"

	"github.com/ons3/Pfe-Project-Final/cmd/projectsctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
