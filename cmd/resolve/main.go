// Package main is the entry point for the resolve CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/threecrickets/resolve/cmd/resolve/commands"
	_ "github.com/threecrickets/resolve/internal/wiring"
)

func main() {
	os.Exit(run())
}

func run() int {
	cli := commands.New()
	if err := cli.Execute(context.Background()); err != nil {
		// zerr prints a pretty error report with stack trace and metadata when using %+v
		_, _ = fmt.Fprintf(os.Stderr, "%+v\n", err)
		return commands.ExitCodeFor(err)
	}
	return 0
}
