package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var (
	browsersBucket = []byte("Browsers")
	touchedBucket  = []byte("Touched")
)

// BoltStore keeps each browser's items in a nested bucket under Browsers and
// the time of its last access under Touched.
type BoltStore struct {
	db  *bbolt.DB
	ttl time.Duration
	now func() time.Time
}

func NewBoltStore(path string, ttl time.Duration) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{browsersBucket, touchedBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db, ttl: ttl, now: time.Now}, nil
}

func (s *BoltStore) touch(tx *bbolt.Tx, browserID string) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(s.now().UnixNano()))
	return tx.Bucket(touchedBucket).Put([]byte(browserID), buf[:])
}

func (s *BoltStore) touchedAt(tx *bbolt.Tx, browserID []byte) (time.Time, bool) {
	v := tx.Bucket(touchedBucket).Get(browserID)
	if len(v) != 8 {
		return time.Time{}, false
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(v))), true
}

// GetItems also counts as activity, so it runs in a write transaction.
func (s *BoltStore) GetItems(_ context.Context, browserID string, keys ...string) (map[string]string, error) {
	if browserID == "" {
		return nil, ErrEmptyBrowserID
	}
	out := map[string]string{}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(browsersBucket).Bucket([]byte(browserID))
		if b == nil {
			return nil
		}
		if len(keys) == 0 {
			if err := b.ForEach(func(k, v []byte) error {
				out[string(k)] = string(v)
				return nil
			}); err != nil {
				return err
			}
		} else {
			for _, k := range keys {
				if v := b.Get([]byte(k)); v != nil {
					out[k] = string(v)
				}
			}
		}
		return s.touch(tx, browserID)
	})
	return out, err
}

func (s *BoltStore) SetItems(_ context.Context, browserID string, items map[string]string) error {
	if browserID == "" {
		return ErrEmptyBrowserID
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket(browsersBucket).CreateBucketIfNotExists([]byte(browserID))
		if err != nil {
			return err
		}
		for k, v := range items {
			if err := b.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return s.touch(tx, browserID)
	})
}

func (s *BoltStore) RemoveItems(_ context.Context, browserID string, keys ...string) error {
	if browserID == "" {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(browsersBucket).Bucket([]byte(browserID))
		if b == nil {
			return nil
		}
		for _, k := range keys {
			if err := b.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return s.touch(tx, browserID)
	})
}

func (s *BoltStore) Clear(_ context.Context, browserID string) error {
	if browserID == "" {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(touchedBucket).Delete([]byte(browserID)); err != nil {
			return err
		}
		root := tx.Bucket(browsersBucket)
		if root.Bucket([]byte(browserID)) == nil {
			return nil
		}
		return root.DeleteBucket([]byte(browserID))
	})
}

// PurgeStale drops browsers idle for longer than the TTL. A bucket without
// a timestamp counts as idle.
func (s *BoltStore) PurgeStale(_ context.Context, now time.Time) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := now.Add(-s.ttl)
	var n int64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket(browsersBucket)
		var stale [][]byte
		err := root.ForEachBucket(func(id []byte) error {
			if at, ok := s.touchedAt(tx, id); !ok || at.Before(cutoff) {
				stale = append(stale, append([]byte(nil), id...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, id := range stale {
			if err := root.DeleteBucket(id); err != nil {
				return err
			}
			if err := tx.Bucket(touchedBucket).Delete(id); err != nil {
				return err
			}
		}
		n = int64(len(stale))
		return nil
	})
	return n, err
}

func (s *BoltStore) Ping(context.Context) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(browsersBucket) == nil {
			return fmt.Errorf("bucket %s not found", browsersBucket)
		}
		return nil
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
