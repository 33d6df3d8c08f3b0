package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AlexYaroshenko/scryfallbot/internal/bot"
	"github.com/AlexYaroshenko/scryfallbot/internal/config"
	"github.com/AlexYaroshenko/scryfallbot/internal/host"
	"github.com/AlexYaroshenko/scryfallbot/internal/pool"
	"github.com/AlexYaroshenko/scryfallbot/internal/telegram"
)

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve Telegram updates (the default)",
		Args:  cobra.NoArgs,
		RunE:  a.runServe,
	}
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg := a.cfg

	commands, err := config.LoadCommands(cfg.CommandsFile)
	if err != nil {
		return err
	}

	manager := &pool.Manager{CheckoutTimeout: cfg.CheckoutTimeout}
	if err := manager.Initialize(ctx, a.opener()); err != nil {
		slog.ErrorContext(
			ctx,
			"Failed to initialize backend pool",
			"backend", cfg.Backend,
			"err", err,
		)
		return err
	}
	defer manager.Close()

	router := &bot.Router{
		Pool: manager,
		API: &telegram.Bot{
			Token:  cfg.TelegramToken,
			APIURL: cfg.TelegramAPIURL,
			Client: a.httpClient(),
		},
		Commands: commands,
		Username: cfg.BotUsername,
		Order:    cfg.SearchOrder,
	}
	srv := &host.Server{
		Addr:           cfg.ListenAddr,
		WebhookPath:    cfg.WebhookPath,
		RequestTimeout: cfg.RequestTimeout,
	}
	h := host.Detect(os.LookupEnv, srv)
	slog.InfoContext(
		ctx,
		"Serving updates",
		"backend", cfg.Backend,
		"host", hostName(h),
	)
	return h.Serve(ctx, router.HandleEvent)
}

func hostName(h host.Host) string {
	if _, ok := h.(*host.Lambda); ok {
		return "lambda"
	}
	return "server"
}
