package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AlexYaroshenko/scryfallbot/internal/errs"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org/"

// maxErrorBody caps how much of a failed response is kept for logs.
const maxErrorBody = 2048

// Bot calls the Bot API with one token.
type Bot struct {
	Token string
	// APIURL defaults to DefaultAPIURL.
	APIURL string
	// Client defaults to http.DefaultClient; give it a Timeout.
	Client *http.Client
}

func (b *Bot) endpoint(method string) string {
	base := b.APIURL
	if base == "" {
		base = DefaultAPIURL
	}
	return fmt.Sprintf("%sbot%s/%s", strings.TrimSuffix(base, "/")+"/", b.Token, method)
}

func (b *Bot) client() *http.Client {
	if b.Client != nil {
		return b.Client
	}
	return http.DefaultClient
}

// Call POSTs payload as JSON to the named method. A non-2xx status or a
// response with ok=false is logged with its status and body and returned as
// a dispatch error.
func (b *Bot) Call(ctx context.Context, method string, payload any) (err error) {
	start := time.Now()
	defer func() {
		slog.DebugContext(
			ctx,
			"telegram.Bot.Call: HTTP POST",
			"method", method,
			"took", time.Since(start),
			"err", err,
		)
	}()

	op := "telegram." + method
	body, err := json.Marshal(payload)
	if err != nil {
		return errs.Dispatch(op, fmt.Errorf("failed to encode payload: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint(method), bytes.NewReader(body))
	if err != nil {
		return errs.Dispatch(op, fmt.Errorf("failed to construct http request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client().Do(req)
	if err != nil {
		return errs.Dispatch(op, redact(err, b.Token))
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	buf, readErr := io.ReadAll(resp.Body)
	var ar apiResponse
	if resp.StatusCode/100 == 2 && readErr == nil && json.Unmarshal(buf, &ar) == nil && ar.OK {
		return nil
	}
	if len(buf) > maxErrorBody {
		buf = buf[:maxErrorBody]
	}
	slog.ErrorContext(
		ctx,
		"Telegram API call failed",
		"method", method,
		"code", resp.StatusCode,
		"body", string(buf),
	)
	return errs.Dispatch(op, fmt.Errorf("code = %d, body = %q", resp.StatusCode, buf))
}

// AnswerInlineQuery sends answerInlineQuery.
func (b *Bot) AnswerInlineQuery(ctx context.Context, answer *AnswerInlineQuery) error {
	return b.Call(ctx, "answerInlineQuery", answer)
}

// SendMessage sends sendMessage.
func (b *Bot) SendMessage(ctx context.Context, msg *SendMessage) error {
	return b.Call(ctx, "sendMessage", msg)
}

// SendPhoto sends sendPhoto.
func (b *Bot) SendPhoto(ctx context.Context, msg *SendPhoto) error {
	return b.Call(ctx, "sendPhoto", msg)
}

// SendMediaGroup sends sendMediaGroup.
func (b *Bot) SendMediaGroup(ctx context.Context, msg *SendMediaGroup) error {
	return b.Call(ctx, "sendMediaGroup", msg)
}

type setWebhook struct {
	URL            string   `json:"url"`
	MaxConnections int      `json:"max_connections,omitempty"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

// SetWebhook points Telegram at webhookURL, subscribing to the two update
// types the bot handles.
func (b *Bot) SetWebhook(ctx context.Context, webhookURL string, maxConn int) error {
	if _, err := url.ParseRequestURI(webhookURL); err != nil {
		return errs.Dispatch("telegram.setWebhook", err)
	}
	return b.Call(ctx, "setWebhook", setWebhook{
		URL:            webhookURL,
		MaxConnections: maxConn,
		AllowedUpdates: []string{"message", "inline_query"},
	})
}

// redact keeps the bot token out of transport errors, which embed the URL.
func redact(err error, token string) error {
	if token == "" {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), token, "<token>"))
}
