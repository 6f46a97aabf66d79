// Command questions-sqlgen converts a CSV file of questions into a SQL INSERT
// statement for the questions game database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/controlplane-com/questions-sqlgen/pkg/convert"
	"github.com/controlplane-com/questions-sqlgen/pkg/parser"
)

const version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(newApp()).ExecuteContext(ctx)
	stop()

	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "questions-sqlgen: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode returns 1 for input and parse failures and 2 for everything else.
func exitCode(err error) int {
	var inputErr *convert.InputError
	var parseErr *parser.ParseError
	if errors.As(err, &inputErr) || errors.As(err, &parseErr) {
		return 1
	}
	return 2
}
