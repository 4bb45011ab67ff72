// cmd/consumer/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"authgate/internal/cdc"
	"authgate/internal/config"
	"authgate/internal/logging"
)

func main() {
	logger := logging.NewJSON("cdc-consumer")
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		logger.Info(ctx, "shutdown signal received")
		cancel()
	}()

	consumer := cdc.NewConsumer(cfg, logger)
	defer consumer.Close()

	if err := consumer.Run(ctx); err != nil {
		log.Fatalf("Consumer failed: %v", err)
	}

	logger.Info(context.Background(), "consumer stopped")
}
