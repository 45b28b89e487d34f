package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
	"github.com/vladislavdragonenkov/minimart/internal/version"
)

func main() {
	// .env необязателен: переменные окружения процесса имеют приоритет.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCLI().RunContext(ctx, os.Args); err != nil && !errors.Is(err, context.Canceled) {
		if domain.IsAuthError(err) {
			fmt.Fprintln(os.Stderr, domain.UserMessage(err), "Run 'pos login'.")
			os.Exit(2)
		}
		log.WithError(err).Error(domain.UserMessage(err))
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:    "pos",
		Usage:   "Mini Mart point of sale",
		Version: version.String(),
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			catalogCommand(),
			stockCommand(),
			inventoryCommand(),
			categoryCommand(),
			reportCommand(),
			registerCommand(),
		},
	}
}
