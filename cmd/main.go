package main

import (
	"context"
	"os"

	"github.com/desertthunder/ytdeck/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})
	app := runner.app()

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatal(describe(err))
	}
}
