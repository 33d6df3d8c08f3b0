package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/AlexYaroshenko/scryfallbot/internal/config"
	"github.com/AlexYaroshenko/scryfallbot/internal/logging"
	"github.com/AlexYaroshenko/scryfallbot/internal/pool"
	"github.com/AlexYaroshenko/scryfallbot/internal/scryfall"
	"github.com/AlexYaroshenko/scryfallbot/internal/store"
)

// app carries what PersistentPreRunE loaded to the subcommands.
type app struct {
	envFiles []string
	cfg      *config.Config
}

func newRootCmd() *cobra.Command {
	a := new(app)
	root := &cobra.Command{
		Use:   "scryfallbot",
		Short: "Telegram bot that looks up Magic: The Gathering cards",
		Long: `scryfallbot answers inline queries (@ScryfallBot <query>) and
[[card name]] references in chats with card images.

Without a subcommand it serves updates: as an AWS Lambda function when
LAMBDA_TASK_ROOT is set, otherwise as a webhook listener on LISTEN_ADDR.
Settings come from the environment, optionally seeded from a .env file.`,
		Example: `  # Serve webhooks locally against the Scryfall API
  BACKEND=scryfall TELEGRAM_BOT_TOKEN=... scryfallbot

  # Try a Scryfall query; no bot token is needed for search or index
  BACKEND=scryfall scryfallbot search "t:dragon c:r" --order cmc

  # Load a Scryfall bulk data file into the bbolt index
  BACKEND=bolt scryfallbot index import --format scryfall default-cards.json`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd.Annotations[offlineAnnotation] == "true")
		},
		RunE: a.runServe,
	}
	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "Load these .env files instead of ./.env")

	root.AddCommand(a.serveCmd())
	root.AddCommand(a.searchCmd())
	root.AddCommand(a.indexCmd())
	root.AddCommand(a.webhookCmd())
	return root
}

// offline annotates commands that never call Telegram.
const offlineAnnotation = "offline"

func (a *app) load(offline bool) error {
	if err := config.LoadDotEnv(a.envFiles...); err != nil {
		return err
	}
	cfg, err := config.FromEnv(offline)
	if err != nil {
		return err
	}
	logging.Init(logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	a.cfg = cfg
	return nil
}

func (a *app) httpClient() *http.Client {
	return &http.Client{Timeout: a.cfg.HTTPTimeout}
}

// opener builds the pool source for the configured backend.
func (a *app) opener() pool.Opener {
	cfg := a.cfg
	return func(ctx context.Context) (pool.Source, error) {
		switch cfg.Backend {
		case config.BackendScryfall:
			c := &scryfall.Client{BaseURL: cfg.ScryfallURL, HTTP: a.httpClient()}
			return pool.NewLimited(c, cfg.PoolMaxConns, nil), nil
		case config.BackendBolt:
			s, err := store.OpenBolt(cfg.BoltPath, cfg.TablePrefix)
			if err != nil {
				return nil, err
			}
			return pool.NewLimited(s, cfg.PoolMaxConns, s.Close), nil
		default:
			s, err := store.OpenPostgres(ctx, cfg.Postgres.URL(), cfg.TablePrefix, cfg.PoolMaxConns)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
	}
}

// openIndex opens the configured store for writing.
func (a *app) openIndex(ctx context.Context) (store.Index, error) {
	cfg := a.cfg
	switch cfg.Backend {
	case config.BackendBolt:
		s, err := store.OpenBolt(cfg.BoltPath, cfg.TablePrefix)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendPostgres:
		s, err := store.OpenPostgres(ctx, cfg.Postgres.URL(), cfg.TablePrefix, cfg.PoolMaxConns)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("backend %q has no local index, use %s or %s", cfg.Backend, config.BackendPostgres, config.BackendBolt)
	}
}
