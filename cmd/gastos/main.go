package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gastos/internal/api"
	"gastos/internal/cli"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gastos: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			fmt.Fprintf(os.Stderr, "gastos: %s\n", apiErr.Detail)
		} else {
			fmt.Fprintf(os.Stderr, "gastos: %v\n", err)
		}
		os.Exit(1)
	}
}
