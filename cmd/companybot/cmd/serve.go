package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"companybot/internal/bot"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Telegram bot",
	Long: `Start the Telegram bot and poll for updates until interrupted.

Users onboard their company with /start and then chat with the resulting
assistant by text or voice message.

Example:
  companybot serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg.Telegram.Token == "" {
		return errors.New("telegram.token is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry, repo, converter, err := buildRegistry(ctx, cfg)
	if err != nil {
		return err
	}

	b, err := bot.New(bot.Config{
		Token:      cfg.Telegram.Token,
		PollPeriod: cfg.Telegram.PollTimeout,
		Debug:      verbose,
	}, registry, repo, converter)
	if err != nil {
		return err
	}

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
