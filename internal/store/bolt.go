package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/AlexYaroshenko/scryfallbot/internal/errs"
	"github.com/AlexYaroshenko/scryfallbot/internal/search"
)

// BoltStore is a single-file card index for local use.
type BoltStore struct {
	db       *bolt.DB
	bktCards []byte
}

var bucketCards = []byte("cards")

// OpenBolt opens or creates the index at path. The bucket name gets prefix.
func OpenBolt(path, prefix string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	bkt := []byte(prefix + string(bucketCards))
	err = db.Update(func(tx *bolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(bkt)
		return e
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db, bktCards: bkt}, nil
}

func (s *BoltStore) Close() error { return s.db.Close() }

// PutCards writes items in one transaction, keyed by id.
func (s *BoltStore) PutCards(ctx context.Context, items []search.Item) (int, error) {
	const op = "store.BoltStore.PutCards"
	if err := ctx.Err(); err != nil {
		return 0, errs.Backend(errs.ReasonBackendUnavailable, op, err)
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(s.bktCards)
		for _, it := range items {
			if it.ID == "" {
				return errs.Backend(errs.ReasonBackendRejected, op, fmt.Errorf("card %q has no id", it.Name))
			}
			b, err := json.Marshal(it)
			if err != nil {
				return errs.Backend(errs.ReasonBackendRejected, op, err)
			}
			if err := bucket.Put([]byte(it.ID), b); err != nil {
				return errs.Backend(errs.ReasonBackendUnavailable, op, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Search scans the whole bucket, then sorts and pages in process.
func (s *BoltStore) Search(ctx context.Context, query, order string, page int) (*search.Result, error) {
	if search.Blank(query) {
		return search.Empty(), nil
	}
	const op = "store.BoltStore.Search"
	order, err := checkOrder(op, order)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Backend(errs.ReasonBackendUnavailable, op, err)
	}

	var hits []search.Item
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bktCards)
		return b.ForEach(func(k, v []byte) error {
			var it search.Item
			if err := json.Unmarshal(v, &it); err != nil {
				return errs.Backend(errs.ReasonBackendDecode, op, fmt.Errorf("card %s: %w", k, err))
			}
			if matches(it, query) {
				hits = append(hits, it)
			}
			return nil
		})
	})
	if err != nil {
		if errs.KindOf(err) == errs.KindBackend {
			return nil, err
		}
		return nil, errs.Backend(errs.ReasonBackendUnavailable, op, err)
	}
	sortItems(hits, order)
	return search.Page(hits, page), nil
}
