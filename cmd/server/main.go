package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Grindin247/decision-system/internal/bootstrap"
)

func main() {
	cfg := bootstrap.LoadConfig()

	app, err := bootstrap.NewApp(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
