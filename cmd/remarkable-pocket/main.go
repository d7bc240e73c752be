// Command remarkable-pocket keeps a reMarkable tablet stocked with unread
// Pocket articles.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/remarkable-pocket/internal/adapters/driving/cli"
	"github.com/custodia-labs/remarkable-pocket/internal/logger"
)

func main() {
	// Exit immediately, even in the middle of an rmapi pipeline.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-signals
		logger.Info("Received %s, exiting.", sig)
		os.Exit(1)
	}()

	if err := cli.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
