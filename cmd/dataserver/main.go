// Command dataserver runs the Data tool server (C2): the out-of-process
// HTTP server exposing conversation/activity/session operations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/virtus-coach/coach/internal/calendar"
	"github.com/virtus-coach/coach/internal/config"
	"github.com/virtus-coach/coach/internal/conversation"
	"github.com/virtus-coach/coach/internal/dataserver"
	"github.com/virtus-coach/coach/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "dataserver: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger, err := logging.New(os.Getenv("COACH_ENV"))
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	_, err = config.Load(".")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dataDir := os.Getenv("COACH_DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}

	convStore, err := conversation.Open(dataDir)
	if err != nil {
		return fmt.Errorf("opening conversation store: %w", err)
	}
	defer convStore.Close()

	calStore, err := calendar.Open(dataDir)
	if err != nil {
		return fmt.Errorf("opening calendar store: %w", err)
	}
	defer calStore.Close()

	srv := dataserver.New(convStore, calStore, nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("dataserver: shutdown signal received")
		cancel()
	}()
	_ = ctx // gin's Run manages its own listener lifecycle; cancel only stops this goroutine

	addr := os.Getenv("COACH_DATASERVER_ADDR")
	if addr == "" {
		addr = ":8081"
	}
	logger.Info("dataserver: listening", "addr", addr)
	return srv.Run(addr)
}
