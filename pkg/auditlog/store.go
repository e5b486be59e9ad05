// Package auditlog implements the encrypted message audit trail: per-guild
// enablement config and per-message snapshots in a transactional key-value
// store, plus the key derivations for attachment storage and snapshot
// encryption.
package auditlog

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// Store runs the audit-log operations. Every operation is one store
// transaction; write conflicts are retried internally so callers never see
// them. No operation spans both the config range and the message-log range.
type Store struct {
	db   *badger.DB
	keys *Keyring
	log  zerolog.Logger
}

func NewStore(db *badger.DB, keys *Keyring, log zerolog.Logger) *Store {
	return &Store{
		db:   db,
		keys: keys,
		log:  log.With().Str("component", "auditlog").Logger(),
	}
}

// Open opens the on-disk store at path and wraps it.
func Open(path string, keys *Keyring, log zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store at %s: %w", path, err)
	}
	return NewStore(db, keys, log), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Enable turns message logging on for a guild, directing notifications to
// channelID. It is an unconditional upsert: enabling twice simply overwrites
// the destination.
func (s *Store) Enable(ctx context.Context, guildID, channelID uint64) error {
	var value [8]byte
	binary.LittleEndian.PutUint64(value[:], channelID)

	return s.update(ctx, func(txn *badger.Txn) error {
		return txn.Set(configKey(guildID), value[:])
	})
}

// Enabled reports whether logging is enabled for a guild and, when it is,
// the destination channel id. Absence of the config entry means disabled.
func (s *Store) Enabled(ctx context.Context, guildID uint64) (uint64, bool, error) {
	var channelID uint64
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(configKey(guildID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				// Bug signal; treat the entry as absent rather than fail the
				// event that triggered the lookup.
				s.log.Warn().
					Uint64("guild_id", guildID).
					Int("len", len(val)).
					Msg("config value has unexpected length")
				return nil
			}
			channelID = binary.LittleEndian.Uint64(val)
			found = true
			return nil
		})
	})
	if err != nil {
		return 0, false, fmt.Errorf("read log config for guild %d: %w", guildID, err)
	}
	return channelID, found, nil
}

// StoreSnapshot encrypts and writes a message snapshot. Writing the same
// message id again overwrites, which makes replays of a creation event safe.
func (s *Store) StoreSnapshot(ctx context.Context, snap *Snapshot) error {
	plain, err := snap.marshal()
	if err != nil {
		return fmt.Errorf("encode snapshot %d: %w", snap.ID, err)
	}
	blob, err := s.keys.Encrypt(snap.ID, plain)
	if err != nil {
		return fmt.Errorf("encrypt snapshot %d: %w", snap.ID, err)
	}

	return s.update(ctx, func(txn *badger.Txn) error {
		return txn.Set(messageKey(snap.ID), blob)
	})
}

// Snapshot reads and decrypts one message snapshot. A stored value that
// fails to decrypt or decode is logged as a bug signal and reported as
// absent, so a corrupt entry degrades to a skipped diff instead of a crash.
func (s *Store) Snapshot(ctx context.Context, messageID uint64) (*Snapshot, bool, error) {
	var blob []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(messageKey(messageID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("read snapshot %d: %w", messageID, err)
	}
	if blob == nil {
		return nil, false, nil
	}

	plain, err := s.keys.Decrypt(messageID, blob)
	if err != nil {
		s.log.Warn().Uint64("message_id", messageID).Err(err).Msg("snapshot failed to decrypt")
		return nil, false, nil
	}
	snap, err := unmarshalSnapshot(plain)
	if err != nil {
		s.log.Warn().Uint64("message_id", messageID).Err(err).Msg("snapshot failed to decode")
		return nil, false, nil
	}
	return snap, true, nil
}

// update runs one read-write transaction, retrying on optimistic-concurrency
// conflicts so retry stays transparent to callers.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	for {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}
