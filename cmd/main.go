package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yungbote/lvflow-backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	application.Start(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- application.Run() }()

	select {
	case err = <-errCh:
	case <-ctx.Done():
		application.Log.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	application.Close(shutdownCtx)
	if err != nil {
		fmt.Printf("server error: %v\n", err)
		os.Exit(1)
	}
}
