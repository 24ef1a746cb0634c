package main

import (
	"embed"
	"fmt"
	"io/fs"
	"os"

	"github.com/UnitVectorY-Labs/statbadges/internal/cli"
)

// templateFS embeds the default badge templates.
//
//go:embed templates/*.svg
var templateFS embed.FS

func main() {
	templates, err := fs.Sub(templateFS, "templates")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := cli.Execute(templates); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
