package main

import (
	"context"
	"log"

	"github.com/afterall1/backtest-0.2/internal/app"
)

func main() {
	a, err := app.NewApp()
	if err != nil {
		log.Fatalf("failed to create app: %v", err)
	}

	ctx := context.Background()

	if err := a.Init(ctx); err != nil {
		a.Logger.Fatal("failed to initialize app: " + err.Error())
	}

	if err := a.Run(ctx); err != nil {
		a.Logger.Fatal("app exited with error: " + err.Error())
	}
}
