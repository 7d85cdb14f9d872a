package backends

import (
	"context"
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v3"
	log "github.com/sirupsen/logrus"

	"github.com/stashd/stashd/config"
	"github.com/stashd/stashd/utils"
)

// BadgerBackend is the embedded durable store. Records are persisted to a
// local file-backed LSM tree. Badger enforces TTL natively: expired entries
// read as missing before compaction removes them, which matches the lazy
// expiry policy the contract requires. A periodic value-log GC pass reclaims
// space from expired rows.
type BadgerBackend struct {
	db     *badger.DB
	stopGC chan struct{}
	doneGC chan struct{}
}

func NewBadgerBackend(cfg config.Badger) *BadgerBackend {
	opts := badger.DefaultOptions(cfg.Dir).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(log.StandardLogger())

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Error creating Badger backend: %v", err)
	}
	log.Infof("Opened Badger store at %s", cfg.Dir)

	b := &BadgerBackend{
		db:     db,
		stopGC: make(chan struct{}),
		doneGC: make(chan struct{}),
	}

	interval := time.Duration(cfg.GCIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = utils.BADGER_GC_INTERVAL_MINUTES * time.Minute
	}
	go b.gcLoop(interval)

	return b
}

func (b *BadgerBackend) Put(ctx context.Context, key string, value string, ttlSeconds int) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == nil {
			return utils.NewStashError(utils.RECORD_EXISTS)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		entry := badger.NewEntry([]byte(key), []byte(value)).
			WithTTL(time.Duration(ttlSeconds) * time.Second)
		return txn.SetEntry(entry)
	})
	return err
}

func (b *BadgerBackend) Get(ctx context.Context, key string) (string, error) {
	var value string

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		value = string(raw)
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", utils.NewStashError(utils.NOT_FOUND)
	}
	if err != nil {
		return "", err
	}

	return value, nil
}

func (b *BadgerBackend) Replace(ctx context.Context, key string, value *string, extraSeconds int) (time.Time, error) {
	var expiresAt time.Time

	// Badger detects conflicting transactions rather than serializing them,
	// so a concurrent Replace on the same key aborts with ErrConflict and is
	// retried here. Each committed attempt is a complete, non-torn update.
	var err error
	for attempt := 0; attempt < utils.MAX_WRITE_CONFLICT_RETRIES; attempt++ {
		err = b.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get([]byte(key))
			if err != nil {
				return err
			}

			newValue := value
			if newValue == nil {
				raw, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				current := string(raw)
				newValue = &current
			}

			remaining := int64(item.ExpiresAt()) - time.Now().Unix()
			if remaining <= 0 {
				return badger.ErrKeyNotFound
			}
			newTTL := remaining
			if extraSeconds > 0 {
				newTTL += int64(extraSeconds)
			}

			entry := badger.NewEntry([]byte(key), []byte(*newValue)).
				WithTTL(time.Duration(newTTL) * time.Second)
			if err := txn.SetEntry(entry); err != nil {
				return err
			}
			expiresAt = time.Now().Add(time.Duration(newTTL) * time.Second)
			return nil
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if errors.Is(err, badger.ErrKeyNotFound) {
		return time.Time{}, utils.NewStashError(utils.NOT_FOUND)
	}
	if err != nil {
		return time.Time{}, err
	}

	return expiresAt, nil
}

func (b *BadgerBackend) Delete(ctx context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return utils.NewStashError(utils.NOT_FOUND)
	}
	return err
}

func (b *BadgerBackend) RemainingTTL(ctx context.Context, key string) (int, error) {
	var remaining int64

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		remaining = int64(item.ExpiresAt()) - time.Now().Unix()
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) || (err == nil && remaining <= 0) {
		return 0, utils.NewStashError(utils.NOT_FOUND)
	}
	if err != nil {
		return 0, err
	}

	return int(remaining), nil
}

// Close stops the GC loop and closes the database.
func (b *BadgerBackend) Close() error {
	close(b.stopGC)
	<-b.doneGC
	return b.db.Close()
}

func (b *BadgerBackend) gcLoop(interval time.Duration) {
	defer close(b.doneGC)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// RunValueLogGC rewrites at most one value log file per call and
			// reports ErrNoRewrite when there is nothing left to reclaim.
			for {
				if err := b.db.RunValueLogGC(0.5); err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) {
						log.Warnf("Badger value log GC: %v", err)
					}
					break
				}
			}
		case <-b.stopGC:
			return
		}
	}
}
