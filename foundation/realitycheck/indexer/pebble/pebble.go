// Package pebble implements the indexer storage on a pebble database. Each
// record is stored under the question id followed by its sequence number so
// a question's records are read back in order with a single range scan.
package pebble

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alex-kampa/realitycheck/foundation/realitycheck/history"
	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sasha-s/go-deadlock"
)

// ErrClosed is returned when the store is used after Close.
var ErrClosed = errors.New("store is closed")

const keyLen = common.HashLength + 8

// Store represents the pebble implementation of the indexer.Storage
// interface.
type Store struct {
	mu     deadlock.RWMutex
	db     *pebble.DB
	closed bool
}

// Open opens or creates the database at the path.
func Open(path string) (*Store, error) {
	opts := pebble.Options{
		Cache:        pebble.NewCache(16 << 20),
		MemTableSize: 8 << 20,
	}
	defer opts.Cache.Unref()

	db, err := pebble.Open(path, &opts)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

// Close flushes and releases the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return s.db.Close()
}

// Write stores the record at the sequence number within its question.
func (s *Store) Write(seq uint64, rec history.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	key := recordKey(rec.QuestionID, seq)

	_, closer, err := s.db.Get(key)
	switch {
	case err == nil:
		closer.Close()
		return fmt.Errorf("question[%s] seq[%d]: already written", rec.QuestionID, seq)
	case !errors.Is(err, pebble.ErrNotFound):
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return s.db.Set(key, data, pebble.Sync)
}

// Records returns the records for the question in sequence order.
func (s *Store) Records(questionID common.Hash) ([]history.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: questionID.Bytes(),
		UpperBound: upperBound(questionID),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var records []history.Record
	for iter.First(); iter.Valid(); iter.Next() {
		val, err := iter.ValueAndErr()
		if err != nil {
			return nil, err
		}

		var rec history.Record
		if err := json.Unmarshal(val, &rec); err != nil {
			return nil, fmt.Errorf("key %x: %w", iter.Key(), err)
		}
		records = append(records, rec)
	}

	return records, iter.Error()
}

// Questions returns the ids of every question with records.
func (s *Store) Questions() ([]common.Hash, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	iter, err := s.db.NewIter(nil)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []common.Hash
	for iter.First(); iter.Valid(); iter.Next() {
		key := iter.Key()
		if len(key) != keyLen {
			continue
		}

		questionID := common.BytesToHash(key[:common.HashLength])
		if n := len(out); n > 0 && bytes.Equal(out[n-1].Bytes(), questionID.Bytes()) {
			continue
		}
		out = append(out, questionID)
	}

	return out, iter.Error()
}

// =============================================================================

func recordKey(questionID common.Hash, seq uint64) []byte {
	key := make([]byte, keyLen)
	copy(key, questionID.Bytes())
	binary.BigEndian.PutUint64(key[common.HashLength:], seq)
	return key
}

// upperBound sorts after every key of the question.
func upperBound(questionID common.Hash) []byte {
	return append(questionID.Bytes(), bytes.Repeat([]byte{0xff}, 9)...)
}
