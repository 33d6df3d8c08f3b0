package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AlexYaroshenko/scryfallbot/internal/pool"
	"github.com/AlexYaroshenko/scryfallbot/internal/scryfall"
	"github.com/AlexYaroshenko/scryfallbot/internal/search"
	"github.com/AlexYaroshenko/scryfallbot/internal/telegram"
)

func (a *app) searchCmd() *cobra.Command {
	var (
		order string
		page  int
	)
	cmd := &cobra.Command{
		Use:         "search <query>",
		Short:       "Run one search against the configured backend",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{offlineAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			manager := &pool.Manager{CheckoutTimeout: a.cfg.CheckoutTimeout}
			if err := manager.Initialize(ctx, a.opener()); err != nil {
				return err
			}
			defer manager.Close()

			var result *search.Result
			err := manager.With(ctx, func(b search.Backend) error {
				var err error
				result, err = b.Search(ctx, args[0], order, page)
				return err
			})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&order, "order", search.DefaultOrder, "Sort order")
	cmd.Flags().IntVar(&page, "page", 1, "Page number, starting at 1")
	return cmd
}

func printResult(w io.Writer, r *search.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
	for _, it := range r.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", it.ID, it.Name, it.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	total := "?"
	if r.TotalCount != nil {
		total = fmt.Sprint(*r.TotalCount)
	}
	more := r.HasMore != nil && *r.HasMore
	_, err := fmt.Fprintf(w, "%d shown, %s total, more: %v\n", r.Len(), total, more)
	return err
}

func (a *app) indexCmd() *cobra.Command {
	index := &cobra.Command{
		Use:   "index",
		Short: "Manage the local card index",
	}
	var format string
	imp := &cobra.Command{
		Use:         "import <file.json>",
		Short:       "Load cards into the configured postgres or bolt index",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{offlineAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			items, err := readCards(f, format)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			idx, err := a.openIndex(ctx)
			if err != nil {
				return err
			}
			defer idx.Close()
			n, err := idx.PutCards(ctx, items)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d cards\n", n)
			return nil
		},
	}
	imp.Flags().StringVar(&format, "format", "items", `Input format: "items" (this tool's JSON) or "scryfall" (bulk data)`)
	index.AddCommand(imp)
	return index
}

func readCards(r io.Reader, format string) ([]search.Item, error) {
	switch format {
	case "scryfall":
		return scryfall.DecodeBulk(r)
	case "items":
		var items []search.Item
		if err := json.NewDecoder(r).Decode(&items); err != nil {
			return nil, err
		}
		return items, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func (a *app) webhookCmd() *cobra.Command {
	webhook := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the Telegram webhook",
	}
	var maxConn int
	set := &cobra.Command{
		Use:   "set <url>",
		Short: "Point Telegram at this bot's webhook URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api := &telegram.Bot{
				Token:  a.cfg.TelegramToken,
				APIURL: a.cfg.TelegramAPIURL,
				Client: a.httpClient(),
			}
			if err := api.SetWebhook(cmd.Context(), args[0], maxConn); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "webhook set")
			return nil
		},
	}
	set.Flags().IntVar(&maxConn, "max-connections", 0, "Maximum concurrent webhook connections, Telegram's default when 0")
	webhook.AddCommand(set)
	return webhook
}
