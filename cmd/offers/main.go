// cmd/offers/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/offers/internal/cli"
)

func main() {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())

	// Setup signal handling for graceful shutdown: in-flight records finish
	// as errors and the partial collection is not written.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn().Msg("Interrupt received, shutting down gracefully...")
		cancel()
		// A second signal skips the graceful path.
		<-sigCh
		os.Exit(130)
	}()

	code := cli.Execute(ctx)
	cancel()
	os.Exit(code)
}
