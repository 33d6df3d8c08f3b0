// Package store keeps a local card index in Postgres or bbolt and serves
// searches over it.
package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/AlexYaroshenko/scryfallbot/internal/errs"
	"github.com/AlexYaroshenko/scryfallbot/internal/search"
)

// CardWriter stores cards for later searches.
type CardWriter interface {
	// PutCards inserts or replaces items by id and returns how many were
	// written.
	PutCards(ctx context.Context, items []search.Item) (int, error)
	Close() error
}

// Index is a writable card store that can also be searched.
type Index interface {
	search.Backend
	CardWriter
}

var (
	_ Index = (*PgStore)(nil)
	_ Index = (*BoltStore)(nil)
)

// Orders the stores accept. Empty means OrderName.
const (
	OrderName = "name"
	OrderID   = "id"
)

func checkOrder(op, order string) (string, error) {
	switch order {
	case "", OrderName:
		return OrderName, nil
	case OrderID:
		return OrderID, nil
	default:
		return "", errs.Backend(errs.ReasonBackendRejected, op, fmt.Errorf("unknown order %q", order))
	}
}

// matches reports whether it is a hit for query: a case-insensitive name
// substring or an exact tag.
func matches(it search.Item, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	return strings.Contains(strings.ToLower(it.Name), q) || it.HasTag(q)
}

func sortItems(items []search.Item, order string) {
	slices.SortStableFunc(items, func(a, b search.Item) int {
		if order == OrderName {
			if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
