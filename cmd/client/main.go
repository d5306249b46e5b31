// Package main is the standalone snippetcorpus API client.
//
// Usage:
//
//	snippetcorpus-client health
//	snippetcorpus-client random --language rust
//	snippetcorpus-client languages
//	snippetcorpus-client import challenges.json
//
// Global flags:
//
//	--api-url    API server URL (default: http://localhost:8080)
//	--timeout    Request timeout duration (default: 30s)
package main

import (
	"os"

	"snippetcorpus/internal/client/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
