// Command promptserver runs the Prompt tool server (C3): a minimal
// out-of-process HTTP server exposing read-only prompt-file access.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/virtus-coach/coach/internal/logging"
	"github.com/virtus-coach/coach/internal/promptserver"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "promptserver: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger, err := logging.New(os.Getenv("COACH_ENV"))
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	promptDir := os.Getenv("COACH_PROMPT_DIR")
	if promptDir == "" {
		promptDir = "./prompts"
	}

	srv := promptserver.New(promptDir, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("promptserver: shutdown signal received")
		cancel()
	}()
	_ = ctx

	addr := os.Getenv("COACH_PROMPTSERVER_ADDR")
	if addr == "" {
		addr = ":8082"
	}
	logger.Info("promptserver: listening", "addr", addr, "prompt_dir", promptDir)
	return srv.Run(addr)
}
