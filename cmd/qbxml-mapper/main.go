// Package main provides the CLI entrypoint for qbxml-mapper.
//
// qbxml-mapper compiles a qbXML grammar and converts between qbXML
// documents and nested maps:
//   - compile: build the schema and write the disk cache
//   - parse / render: document to map and back
//   - locate / schema / dump: inspect schema paths and parsed documents
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"qbxml-mapper/internal/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := commands.RootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
