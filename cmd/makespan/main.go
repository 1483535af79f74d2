// Package main is the entry point for the makespan CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"makespan/cmd/makespan/commands"
)

func main() {
	cli := commands.New(os.Stdout, os.Stderr)
	if err := cli.Execute(context.Background()); err != nil {
		// zerr печатает отчёт с метаданными при %+v
		_, _ = fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}
