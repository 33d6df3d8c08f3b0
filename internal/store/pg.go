package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AlexYaroshenko/scryfallbot/internal/errs"
	"github.com/AlexYaroshenko/scryfallbot/internal/search"
)

// PgStore is the Postgres card index.
type PgStore struct {
	pool       *pgxpool.Pool
	tableCards string
}

// querier is satisfied by both *pgxpool.Pool and *pgxpool.Conn.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// OpenPostgres connects to url with at most maxConns connections and creates
// the cards table if needed. Table names get prefix.
func OpenPostgres(ctx context.Context, url, prefix string, maxConns int) (*PgStore, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	s := &PgStore{
		pool:       pool,
		tableCards: prefix + "cards",
	}
	if err := s.init(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PgStore) init(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`create table if not exists %s (
			id text primary key,
			name text not null,
			tags text[] not null default '{}',
			detail_url text not null default '',
			thumbnail_url text not null default '',
			images jsonb not null default '{}',
			description text not null default '',
			secondary_text text not null default '',
			updated_at timestamptz not null default now()
		)`, s.tableCards),
		fmt.Sprintf(`create index if not exists %[1]s_lower_name on %[1]s (lower(name))`, s.tableCards),
	}
	for _, q := range stmts {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("failed to init %s: %w", s.tableCards, err)
		}
	}
	return nil
}

// Close closes every pooled connection.
func (s *PgStore) Close() error { s.pool.Close(); return nil }

// Search runs on any free pooled connection.
func (s *PgStore) Search(ctx context.Context, query, order string, page int) (*search.Result, error) {
	return searchCards(ctx, s.pool, s.tableCards, query, order, page)
}

// Acquire checks out one dedicated connection as a search.Backend. release
// returns it to the pool.
func (s *PgStore) Acquire(ctx context.Context) (search.Backend, func(), error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	return &pgConn{conn: conn, table: s.tableCards}, conn.Release, nil
}

type pgConn struct {
	conn  *pgxpool.Conn
	table string
}

func (c *pgConn) Search(ctx context.Context, query, order string, page int) (*search.Result, error) {
	return searchCards(ctx, c.conn, c.table, query, order, page)
}

const cardColumns = "id, name, tags, detail_url, thumbnail_url, images, description, secondary_text"

func searchSQL(table, order string) (string, error) {
	order, err := checkOrder("store.PgStore.Search", order)
	if err != nil {
		return "", err
	}
	orderBy := "lower(name), id"
	if order == OrderID {
		orderBy = "id"
	}
	return fmt.Sprintf(`select %s, count(*) over() from %s
		where name ilike $1 escape '\'
		   or exists (select 1 from unnest(tags) t where lower(t) = lower($2))
		order by %s
		limit %d offset $3`, cardColumns, table, orderBy, search.PageSize), nil
}

// likePattern turns query into a substring ILIKE pattern with its own
// wildcards escaped.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(query)) + "%"
}

func searchCards(ctx context.Context, q querier, table, query, order string, page int) (*search.Result, error) {
	if search.Blank(query) {
		return search.Empty(), nil
	}
	const op = "store.PgStore.Search"
	sql, err := searchSQL(table, order)
	if err != nil {
		return nil, err
	}
	offset := search.Offset(page)
	rows, err := q.Query(ctx, sql, likePattern(query), strings.TrimSpace(query), offset)
	if err != nil {
		return nil, pgError(op, err)
	}
	defer rows.Close()

	var (
		items []search.Item
		total int
	)
	for rows.Next() {
		var (
			it     search.Item
			images []byte
		)
		if err := rows.Scan(&it.ID, &it.Name, &it.Tags, &it.DetailURL, &it.ThumbnailURL, &images, &it.Description, &it.SecondaryText, &total); err != nil {
			return nil, errs.Backend(errs.ReasonBackendDecode, op, err)
		}
		if err := json.Unmarshal(images, &it.Images); err != nil {
			return nil, errs.Backend(errs.ReasonBackendDecode, op, fmt.Errorf("card %s images: %w", it.ID, err))
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, pgError(op, err)
	}

	result := &search.Result{Items: items}
	more := offset+len(items) < total
	result.HasMore = &more
	// A page past the end carries no window row to count from.
	if len(items) > 0 {
		result.TotalCount = &total
	}
	return result, nil
}

// pgError separates statements the server refused from connection trouble.
func pgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return errs.Backend(errs.ReasonBackendRejected, op, fmt.Errorf("%s (SQLSTATE %s)", pgErr.Message, pgErr.Code))
	}
	return errs.Backend(errs.ReasonBackendUnavailable, op, err)
}

// PutCards upserts items in one batch.
func (s *PgStore) PutCards(ctx context.Context, items []search.Item) (int, error) {
	const op = "store.PgStore.PutCards"
	sql := fmt.Sprintf(`insert into %s (%s, updated_at)
		values ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, now())
		on conflict (id) do update set name=excluded.name, tags=excluded.tags, detail_url=excluded.detail_url,
		thumbnail_url=excluded.thumbnail_url, images=excluded.images, description=excluded.description,
		secondary_text=excluded.secondary_text, updated_at=excluded.updated_at`, s.tableCards, cardColumns)

	batch := &pgx.Batch{}
	for _, it := range items {
		if it.ID == "" {
			return 0, errs.Backend(errs.ReasonBackendRejected, op, fmt.Errorf("card %q has no id", it.Name))
		}
		images, err := json.Marshal(it.Images)
		if err != nil {
			return 0, errs.Backend(errs.ReasonBackendRejected, op, err)
		}
		tags := it.Tags
		if tags == nil {
			tags = []string{}
		}
		batch.Queue(sql, it.ID, it.Name, tags, it.DetailURL, it.ThumbnailURL, string(images), it.Description, it.SecondaryText)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := range items {
		if _, err := br.Exec(); err != nil {
			return i, pgError(op, err)
		}
	}
	return len(items), nil
}
