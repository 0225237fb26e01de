package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/app"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	log, err := logger.New(cmd.String("log-mode"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, log)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	if err := a.Run(ctx, cmd.String("addr")); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

func migrate(_ context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()
	return app.Migrate(log)
}

func main() {
	cmd := &cli.Command{
		Name:   "studypal",
		Usage:  "Study Pal API: notes, flashcards, quizzes and AI study tools",
		Action: serve,
		// Root flags are inherited by the subcommands.
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-mode",
				Usage:   "Logger mode (development or production)",
				Value:   "development",
				Sources: cli.EnvVars("LOG_MODE"),
			},
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Listen address; defaults to :$PORT",
				Sources: cli.EnvVars("ADDR"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Run database migrations and exit",
				Action: migrate,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "studypal: %v\n", err)
		os.Exit(1)
	}
}
