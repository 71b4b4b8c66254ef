package main

import (
	"context"

	"roomres/config"
	"roomres/di"
	"roomres/shared/logger"
)

func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := di.InitializeApp()

	go app.Settlement.Run(ctx)
	go app.Sweeper.Run(ctx)

	app.HTTP.Serve()
}
