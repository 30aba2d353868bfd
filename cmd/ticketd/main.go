// ticketd serves hierarchical tickets over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/jacentio/tickets/internal/cli"
)

var (
	run    = func() error { return cli.Execute() }
	osExit = os.Exit
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		osExit(1)
	}
}
