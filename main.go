package main

import (
	"fmt"
	"os"

	"github.com/plancheck/plancheck/cmd"
	"github.com/plancheck/plancheck/internal/conf"
	"github.com/plancheck/plancheck/internal/logging"
)

func main() {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
