package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xaenox/iforgot/internal/bot"
)

func botCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if cfg.Telegram.Token == "" {
				return errors.New("telegram token is not configured (set TELEGRAM_TOKEN)")
			}

			a, err := newApp(cfg, logger)
			if err != nil {
				logger.Error("Failed to initialize", zap.Error(err))
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			botCfg, err := botConfig(ctx, a, cfg.Telegram.OwnerID)
			if err != nil {
				logger.Error("Failed to seed bot owner", zap.Error(err))
				return err
			}

			b, err := bot.New(cfg.Telegram.Token, a.notes, a.transcriber, botCfg, logger)
			if err != nil {
				logger.Error("Failed to create bot", zap.Error(err))
				return err
			}

			logger.Info("Bot started")
			return b.Start(ctx)
		},
	}
}

// botConfig builds the bot settings. A fixed owner is seeded once here;
// otherwise each derived owner is seeded on first use.
func botConfig(ctx context.Context, a *app, ownerID string) (bot.Config, error) {
	if ownerID == "" {
		return bot.Config{EnsureOwner: a.ensureOwner}, nil
	}
	if err := a.ensureOwner(ctx, ownerID); err != nil {
		return bot.Config{}, fmt.Errorf("seed telegram owner %s: %w", ownerID, err)
	}
	return bot.Config{OwnerID: ownerID}, nil
}
