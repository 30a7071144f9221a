// Command transcribot runs the Telegram transcription bot: update polling,
// the job worker and, when enabled, the admin HTTP server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kbukum/transcribot/app"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "transcribot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := app.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	// Run handles SIGINT and SIGTERM itself.
	return a.Run(context.Background())
}
