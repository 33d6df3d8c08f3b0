// Package bot routes Telegram updates to searches and replies.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.yhsif.com/ctxslog"

	"github.com/AlexYaroshenko/scryfallbot/internal/config"
	"github.com/AlexYaroshenko/scryfallbot/internal/errs"
	"github.com/AlexYaroshenko/scryfallbot/internal/pool"
	"github.com/AlexYaroshenko/scryfallbot/internal/refs"
	"github.com/AlexYaroshenko/scryfallbot/internal/reply"
	"github.com/AlexYaroshenko/scryfallbot/internal/search"
	"github.com/AlexYaroshenko/scryfallbot/internal/telegram"
)

// Pool hands out backends. *pool.Manager implements it.
type Pool interface {
	Checkout(ctx context.Context) (*pool.Lease, error)
}

// Dispatcher delivers outbound requests. *telegram.Bot implements it.
type Dispatcher interface {
	AnswerInlineQuery(ctx context.Context, answer *telegram.AnswerInlineQuery) error
	SendMessage(ctx context.Context, msg *telegram.SendMessage) error
	SendPhoto(ctx context.Context, msg *telegram.SendPhoto) error
	SendMediaGroup(ctx context.Context, msg *telegram.SendMediaGroup) error
}

var (
	_ Pool       = (*pool.Manager)(nil)
	_ Dispatcher = (*telegram.Bot)(nil)
)

// Router handles one update at a time and is safe for concurrent use.
type Router struct {
	Pool     Pool
	API      Dispatcher
	Commands config.Commands
	// Username is the bot's own username. When set, commands addressed to
	// another bot ("/start@OtherBot") are ignored.
	Username string
	// Order is the inline search order, search.DefaultOrder when empty.
	Order string
}

var okResponse = json.RawMessage(`{}`)

// maxLoggedPayload caps how much of an undecodable update is logged.
const maxLoggedPayload = 512

func truncate(raw []byte) string {
	if len(raw) <= maxLoggedPayload {
		return string(raw)
	}
	return string(raw[:maxLoggedPayload]) + "..."
}

// HandleEvent decodes one raw update and handles it. It returns an empty
// JSON object on success.
func (r *Router) HandleEvent(ctx context.Context, raw json.RawMessage) (json.RawMessage, error) {
	ctx = ctxslog.Attach(ctx, "requestID", uuid.NewString())
	var u telegram.Update
	if err := json.Unmarshal(raw, &u); err != nil {
		slog.ErrorContext(
			ctx,
			"Unable to decode update",
			"err", err,
			"body", truncate(raw),
		)
		return nil, errs.Decode("bot.HandleEvent", err)
	}
	if err := r.Handle(ctx, &u); err != nil {
		return nil, err
	}
	return okResponse, nil
}

// Handle runs the inline path, then the message paths. A failure in one path
// does not stop the others; all failures are joined. Delivery failures are
// only logged.
func (r *Router) Handle(ctx context.Context, u *telegram.Update) error {
	ctx = ctxslog.Attach(ctx, "updateID", u.UpdateID, "updateType", updateType(u))
	var failed []error
	if q := u.InlineQuery; q != nil {
		if err := r.handleInline(ctx, q); err != nil {
			failed = append(failed, err)
		}
	}
	if m := u.Message; m != nil {
		if err := r.handleReferences(ctx, m); err != nil {
			failed = append(failed, err)
		}
		r.handleCommands(ctx, m)
	}
	if u.InlineQuery == nil && u.Message == nil {
		slog.DebugContext(ctx, "Not a message nor inline query, ignoring...")
	}
	return errors.Join(failed...)
}

func updateType(u *telegram.Update) string {
	switch {
	case u.InlineQuery != nil && u.Message != nil:
		return "inline_query+message"
	case u.InlineQuery != nil:
		return "inline_query"
	case u.Message != nil:
		return "message"
	default:
		return "unknown"
	}
}

func (r *Router) order() string {
	if r.Order != "" {
		return r.Order
	}
	return search.DefaultOrder
}

func (r *Router) handleInline(ctx context.Context, q *telegram.InlineQuery) error {
	if search.Blank(q.Query) {
		return nil
	}
	ctx = ctxslog.Attach(ctx, "inlineQueryID", q.ID)

	lease, err := r.Pool.Checkout(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Checkout failed", "err", err)
		return err
	}
	result, err := func() (*search.Result, error) {
		defer lease.Release()
		return lease.Search(ctx, q.Query, r.order(), 1)
	}()
	if err != nil {
		slog.ErrorContext(
			ctx,
			"Search failed",
			"query", q.Query,
			"err", err,
		)
		return err
	}

	var items []search.Item
	if result != nil {
		items = result.Items
	}
	answer := reply.BuildInlineAnswer(q.ID, items)
	if err := r.API.AnswerInlineQuery(ctx, answer); err != nil {
		logDispatch(ctx, "answerInlineQuery", err)
	}
	return nil
}

func (r *Router) handleReferences(ctx context.Context, m *telegram.Message) error {
	if m.Text == "" {
		return nil
	}
	names := refs.Collect(m.Text)
	if len(names) == 0 {
		return nil
	}
	ctx = ctxslog.Attach(ctx, "chatID", m.Chat.ID)

	lease, err := r.Pool.Checkout(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Checkout failed", "err", err)
		return err
	}
	resolved, err := func() ([]search.Resolution, error) {
		defer lease.Release()
		var (
			out    []search.Resolution
			failed []error
		)
		for _, name := range names {
			res, ok, err := search.Resolve(ctx, lease, name)
			if err != nil {
				slog.ErrorContext(ctx, "Reference lookup failed", "reference", name, "err", err)
				failed = append(failed, fmt.Errorf("resolve %q: %w", name, err))
				if ctx.Err() != nil {
					break
				}
				continue
			}
			if !ok {
				slog.InfoContext(ctx, "No card found", "reference", name)
				continue
			}
			out = append(out, res)
		}
		return out, errors.Join(failed...)
	}()

	for _, out := range reply.BuildChatReplies(m.Chat.ID, resolved) {
		switch {
		case out.Photo != nil:
			if err := r.API.SendPhoto(ctx, out.Photo); err != nil {
				logDispatch(ctx, "sendPhoto", err)
			}
		case out.MediaGroup != nil:
			if err := r.API.SendMediaGroup(ctx, out.MediaGroup); err != nil {
				logDispatch(ctx, "sendMediaGroup", err)
			}
		}
	}
	return err
}

func (r *Router) handleCommands(ctx context.Context, m *telegram.Message) {
	for _, literal := range telegram.Commands(m.Text, m.Entities) {
		cmd, addressee := telegram.SplitCommand(literal)
		if addressee != "" && r.Username != "" && !strings.EqualFold(addressee, r.Username) {
			continue
		}
		rep, ok := r.Commands[cmd]
		if !ok {
			slog.InfoContext(ctx, "Unsupported command", "command", literal)
			continue
		}
		err := r.API.SendMessage(ctx, &telegram.SendMessage{
			ChatID:                m.Chat.ID,
			Text:                  rep.Text,
			ParseMode:             rep.ParseMode,
			DisableWebPagePreview: rep.DisableWebPagePreview,
		})
		if err != nil {
			logDispatch(ctx, "sendMessage", err)
		}
	}
}

func logDispatch(ctx context.Context, method string, err error) {
	slog.ErrorContext(
		ctx,
		"Failed to deliver reply",
		"method", method,
		"err", err,
	)
}
