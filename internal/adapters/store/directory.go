package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

var ErrUserNotFound = errors.New("user not found")

const userPrefix = "user:"

// BadgerDirectory keeps user records and their group memberships in badger.
type BadgerDirectory struct {
	db *badger.DB
}

// Open opens the directory at path, or a throwaway in-memory one.
func Open(path string, inMemory bool) (*BadgerDirectory, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open directory: %w", err)
	}
	log.Info().Str("module", "adapters.store").Str("path", path).Bool("in_memory", inMemory).Msg("directory opened")
	return &BadgerDirectory{db: db}, nil
}

func (d *BadgerDirectory) Close() error {
	return d.db.Close()
}

func userKey(id domain.UserID) []byte {
	return []byte(userPrefix + string(id))
}

func (d *BadgerDirectory) Lookup(_ context.Context, id domain.UserID) (domain.UserRecord, error) {
	var rec domain.UserRecord
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.UserRecord{}, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	if err != nil {
		return domain.UserRecord{}, fmt.Errorf("lookup %s: %w", id, err)
	}
	return rec, nil
}

// Put creates or replaces rec. Duplicate and empty group ids are dropped.
func (d *BadgerDirectory) Put(_ context.Context, rec domain.UserRecord) error {
	if rec.ID == "" {
		return domain.ErrUserIDEmpty
	}
	rec.Groups = lo.Compact(lo.Uniq(rec.Groups))
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	if err := d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(rec.ID), data)
	}); err != nil {
		return fmt.Errorf("put %s: %w", rec.ID, err)
	}
	log.Debug().Str("module", "adapters.store").Str("user", string(rec.ID)).Int("groups", len(rec.Groups)).Msg("user stored")
	return nil
}

func (d *BadgerDirectory) Delete(_ context.Context, id domain.UserID) error {
	err := d.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userKey(id)); err != nil {
			return err
		}
		return txn.Delete(userKey(id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return err
}

// List returns every stored record.
func (d *BadgerDirectory) List(_ context.Context) ([]domain.UserRecord, error) {
	var out []domain.UserRecord
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(userPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var rec domain.UserRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}
