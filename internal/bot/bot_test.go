package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/AlexYaroshenko/scryfallbot/internal/config"
	"github.com/AlexYaroshenko/scryfallbot/internal/errs"
	"github.com/AlexYaroshenko/scryfallbot/internal/pool"
	"github.com/AlexYaroshenko/scryfallbot/internal/search"
	"github.com/AlexYaroshenko/scryfallbot/internal/telegram"
)

// catalog answers a query with the items whose name contains it.
type catalog struct {
	items []search.Item
	err   error
}

func (c *catalog) Search(_ context.Context, query, _ string, page int) (*search.Result, error) {
	if c.err != nil {
		return nil, c.err
	}
	var hits []search.Item
	for _, it := range c.items {
		if strings.Contains(strings.ToLower(it.Name), strings.ToLower(strings.TrimSpace(query))) {
			hits = append(hits, it)
		}
	}
	return search.Page(hits, page), nil
}

// failing fails the queries in bad and hands the rest to catalog.
type failing struct {
	*catalog
	bad map[string]bool
}

func (f *failing) Search(ctx context.Context, query, order string, page int) (*search.Result, error) {
	if f.bad[query] {
		return nil, errs.Backend(errs.ReasonBackendUnavailable, "test", errors.New("timeout"))
	}
	return f.catalog.Search(ctx, query, order, page)
}

type countingPool struct {
	*pool.Manager
	checkouts atomic.Int32
}

func (p *countingPool) Checkout(ctx context.Context) (*pool.Lease, error) {
	p.checkouts.Add(1)
	return p.Manager.Checkout(ctx)
}

func newPool(t *testing.T, b search.Backend) *countingPool {
	t.Helper()
	m := new(pool.Manager)
	require.NoError(t, m.Initialize(context.Background(), func(context.Context) (pool.Source, error) {
		return pool.NewLimited(b, 2, nil), nil
	}))
	t.Cleanup(func() { m.Close() })
	return &countingPool{Manager: m}
}

type call struct {
	method string
	req    any
}

type fakeAPI struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (f *fakeAPI) record(method string, req any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{method, req})
	return f.err
}

func (f *fakeAPI) AnswerInlineQuery(_ context.Context, a *telegram.AnswerInlineQuery) error {
	return f.record("answerInlineQuery", a)
}

func (f *fakeAPI) SendMessage(_ context.Context, m *telegram.SendMessage) error {
	return f.record("sendMessage", m)
}

func (f *fakeAPI) SendPhoto(_ context.Context, m *telegram.SendPhoto) error {
	return f.record("sendPhoto", m)
}

func (f *fakeAPI) SendMediaGroup(_ context.Context, m *telegram.SendMediaGroup) error {
	return f.record("sendMediaGroup", m)
}

func (f *fakeAPI) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		out = append(out, c.method)
	}
	return out
}

func cardItem(id, name string) search.Item {
	return search.Item{
		ID:     id,
		Name:   name,
		Images: map[string]string{search.ImageNormal: "https://img/" + id + ".jpg"},
	}
}

var deck = &catalog{items: []search.Item{
	cardItem("bolt", "Lightning Bolt"),
	cardItem("opt", "Opt"),
	cardItem("shock", "Shock"),
}}

func newRouter(t *testing.T, b search.Backend) (*Router, *countingPool, *fakeAPI) {
	t.Helper()
	p := newPool(t, b)
	api := new(fakeAPI)
	return &Router{
		Pool:     p,
		API:      api,
		Commands: config.DefaultCommands(),
		Username: "ScryfallBot",
	}, p, api
}

func startMessage(text string, entities ...telegram.MessageEntity) *telegram.Update {
	return &telegram.Update{
		UpdateID: 1,
		Message: &telegram.Message{
			MessageID: 10,
			Chat:      telegram.Chat{ID: 42},
			Text:      text,
			Entities:  entities,
		},
	}
}

func TestHandleEmptyInlineQuery(t *testing.T) {
	r, p, api := newRouter(t, deck)
	err := r.Handle(context.Background(), &telegram.Update{
		InlineQuery: &telegram.InlineQuery{ID: "q", Query: ""},
	})
	require.NoError(t, err)
	require.Zero(t, p.checkouts.Load())
	require.Empty(t, api.methods())
}

func TestHandleInlineQuery(t *testing.T) {
	items := make([]search.Item, 60)
	for i := range items {
		items[i] = cardItem(fmt.Sprint(i), fmt.Sprintf("Island %02d", i))
	}
	r, p, api := newRouter(t, &catalog{items: items})
	err := r.Handle(context.Background(), &telegram.Update{
		InlineQuery: &telegram.InlineQuery{ID: "q1", Query: "island"},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, p.checkouts.Load())
	require.Equal(t, []string{"answerInlineQuery"}, api.methods())

	answer := api.calls[0].req.(*telegram.AnswerInlineQuery)
	require.Equal(t, "q1", answer.InlineQueryID)
	require.Len(t, answer.Results, telegram.MaxInlineResults)
	require.Equal(t, "0", answer.Results[0].ID)
}

func TestHandleInlineNoHitsStillAnswers(t *testing.T) {
	r, _, api := newRouter(t, deck)
	err := r.Handle(context.Background(), &telegram.Update{
		InlineQuery: &telegram.InlineQuery{ID: "q2", Query: "zzz"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"answerInlineQuery"}, api.methods())
	require.Empty(t, api.calls[0].req.(*telegram.AnswerInlineQuery).Results)
}

func TestHandleStartCommand(t *testing.T) {
	r, p, api := newRouter(t, deck)
	err := r.Handle(context.Background(), startMessage("/start",
		telegram.MessageEntity{Type: telegram.EntityBotCommand, Offset: 0, Length: 6},
	))
	require.NoError(t, err)
	require.Zero(t, p.checkouts.Load())
	require.Equal(t, []string{"sendMessage"}, api.methods())

	msg := api.calls[0].req.(*telegram.SendMessage)
	require.EqualValues(t, 42, msg.ChatID)
	require.Equal(t, config.DefaultCommands()["/start"].Text, msg.Text)
	require.Equal(t, telegram.ParseModeMarkdown, msg.ParseMode)
	require.True(t, msg.DisableWebPagePreview)
}

func TestHandleCommandsAddressing(t *testing.T) {
	r, _, api := newRouter(t, deck)
	text := "/help@ScryfallBot /start@OtherBot /unknown"
	err := r.Handle(context.Background(), startMessage(text,
		telegram.MessageEntity{Type: telegram.EntityBotCommand, Offset: 0, Length: 17},
		telegram.MessageEntity{Type: telegram.EntityBotCommand, Offset: 18, Length: 15},
		telegram.MessageEntity{Type: telegram.EntityBotCommand, Offset: 34, Length: 8},
	))
	require.NoError(t, err)
	require.Equal(t, []string{"sendMessage"}, api.methods())
}

func TestHandleTwoReferences(t *testing.T) {
	r, p, api := newRouter(t, deck)
	err := r.Handle(context.Background(), startMessage("[[Lightning Bolt]] and [[Opt]]"))
	require.NoError(t, err)
	require.EqualValues(t, 1, p.checkouts.Load())
	require.Equal(t, []string{"sendMediaGroup"}, api.methods())

	want := &telegram.SendMediaGroup{
		ChatID: 42,
		Media: []telegram.InputMediaPhoto{
			{Type: "photo", Media: "https://img/bolt.jpg"},
			{Type: "photo", Media: "https://img/opt.jpg"},
		},
	}
	if diff := cmp.Diff(want, api.calls[0].req); diff != "" {
		t.Errorf("sendMediaGroup mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleUnresolvedReferenceSkipped(t *testing.T) {
	r, _, api := newRouter(t, deck)
	err := r.Handle(context.Background(), startMessage("[[Shock]] [[Nonexistent Card]]"))
	require.NoError(t, err)
	require.Equal(t, []string{"sendPhoto"}, api.methods())
	require.Equal(t, "https://img/shock.jpg", api.calls[0].req.(*telegram.SendPhoto).Photo)
}

func TestHandleReferenceFailureKeepsResolvedCards(t *testing.T) {
	b := &failing{catalog: deck, bad: map[string]bool{"Opt": true}}
	r, _, api := newRouter(t, b)
	err := r.Handle(context.Background(), startMessage("[[Lightning Bolt]] [[Opt]] [[Shock]]"))
	require.ErrorIs(t, err, errs.ErrBackendUnavailable)
	require.Contains(t, err.Error(), `"Opt"`)
	require.Equal(t, []string{"sendMediaGroup"}, api.methods())

	want := &telegram.SendMediaGroup{
		ChatID: 42,
		Media: []telegram.InputMediaPhoto{
			{Type: "photo", Media: "https://img/bolt.jpg"},
			{Type: "photo", Media: "https://img/shock.jpg"},
		},
	}
	if diff := cmp.Diff(want, api.calls[0].req); diff != "" {
		t.Errorf("sendMediaGroup mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleManyReferencesSendsEveryCard(t *testing.T) {
	var (
		many = new(catalog)
		text strings.Builder
	)
	for i := range 11 {
		name := fmt.Sprintf("Card %02d", i)
		many.items = append(many.items, cardItem(fmt.Sprint(i), name))
		fmt.Fprintf(&text, "[[%s]] ", name)
	}
	r, p, api := newRouter(t, many)
	require.NoError(t, r.Handle(context.Background(), startMessage(text.String())))
	require.EqualValues(t, 1, p.checkouts.Load())
	require.Equal(t, []string{"sendMediaGroup", "sendPhoto"}, api.methods())
	require.Len(t, api.calls[0].req.(*telegram.SendMediaGroup).Media, telegram.MaxMediaGroup)
	require.Equal(t, "https://img/10.jpg", api.calls[1].req.(*telegram.SendPhoto).Photo)
}

func TestHandlePlainTextDoesNothing(t *testing.T) {
	r, p, api := newRouter(t, deck)
	require.NoError(t, r.Handle(context.Background(), startMessage("just chatting")))
	require.NoError(t, r.Handle(context.Background(), startMessage("")))
	require.Zero(t, p.checkouts.Load())
	require.Empty(t, api.methods())
}

func TestHandleBothVariants(t *testing.T) {
	r, _, api := newRouter(t, deck)
	u := startMessage("[[Opt]] /start",
		telegram.MessageEntity{Type: telegram.EntityBotCommand, Offset: 8, Length: 6},
	)
	u.InlineQuery = &telegram.InlineQuery{ID: "q", Query: "shock"}
	require.NoError(t, r.Handle(context.Background(), u))
	require.Equal(t, []string{"answerInlineQuery", "sendPhoto", "sendMessage"}, api.methods())
}

func TestHandleBackendFailureKeepsOtherPaths(t *testing.T) {
	down := &catalog{err: errs.Backend(errs.ReasonBackendUnavailable, "test", errors.New("down"))}
	r, _, api := newRouter(t, down)
	u := startMessage("[[Opt]] /start",
		telegram.MessageEntity{Type: telegram.EntityBotCommand, Offset: 8, Length: 6},
	)
	u.InlineQuery = &telegram.InlineQuery{ID: "q", Query: "shock"}

	err := r.Handle(context.Background(), u)
	require.ErrorIs(t, err, errs.ErrBackendUnavailable)
	require.Equal(t, []string{"sendMessage"}, api.methods())
}

func TestHandlePoolNotInitialized(t *testing.T) {
	api := new(fakeAPI)
	r := &Router{Pool: new(pool.Manager), API: api, Commands: config.DefaultCommands()}
	err := r.Handle(context.Background(), &telegram.Update{
		InlineQuery: &telegram.InlineQuery{ID: "q", Query: "bolt"},
	})
	require.ErrorIs(t, err, errs.ErrPoolNotInitialized)
	require.Empty(t, api.methods())
}

func TestHandleDispatchFailureIsLoggedOnly(t *testing.T) {
	r, _, api := newRouter(t, deck)
	api.err = errs.Dispatch("telegram.sendPhoto", errors.New("chat not found"))
	require.NoError(t, r.Handle(context.Background(), startMessage("[[Opt]]")))
	require.Equal(t, []string{"sendPhoto"}, api.methods())
}

func TestHandleEvent(t *testing.T) {
	r, _, api := newRouter(t, deck)
	raw := json.RawMessage(`{"update_id":5,"message":{"message_id":1,"chat":{"id":42},"text":"/start","entities":[{"type":"bot_command","offset":0,"length":6}]}}`)
	out, err := r.HandleEvent(context.Background(), raw)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(out))
	require.Equal(t, []string{"sendMessage"}, api.methods())
}

func TestHandleEventMalformed(t *testing.T) {
	r, _, api := newRouter(t, deck)
	_, err := r.HandleEvent(context.Background(), json.RawMessage(`{"update_id":`))
	require.ErrorIs(t, err, errs.ErrDecode)
	require.Empty(t, api.methods())
}

func TestTruncate(t *testing.T) {
	short := []byte(`{"update_id":1}`)
	require.Equal(t, string(short), truncate(short))

	long := []byte(strings.Repeat("x", maxLoggedPayload+10))
	got := truncate(long)
	require.Equal(t, strings.Repeat("x", maxLoggedPayload)+"...", got)
}

func TestUpdateType(t *testing.T) {
	for _, c := range []struct {
		u    telegram.Update
		want string
	}{
		{telegram.Update{}, "unknown"},
		{telegram.Update{InlineQuery: &telegram.InlineQuery{}}, "inline_query"},
		{telegram.Update{Message: &telegram.Message{}}, "message"},
		{telegram.Update{InlineQuery: &telegram.InlineQuery{}, Message: &telegram.Message{}}, "inline_query+message"},
	} {
		require.Equal(t, c.want, updateType(&c.u))
	}
}
