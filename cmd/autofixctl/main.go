// Command autofixctl is the CLI front end for the repair engine, adapted
// from cli.go's CLI struct (cobra root command + PersistentPreRun setup)
// but re-pointed from "monitor a GitHub Actions workflow" at "run/repair a
// Go source file". Subcommands: run, repair, serve, config, test.
package main

import (
	"os"
)

func main() {
	cli := NewCLI()
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
