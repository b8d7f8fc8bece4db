// quartoc - a client for the Quarto game server with optional SSH
// tunnelling.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"quartoc/cmd"
	ncerr "quartoc/internal/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "quartoc: %v\n", err)
		var ce *ncerr.ConfigError
		if ncerr.As(err, &ce) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
