// Package indexer keeps the full history of every question off to the side
// of the engine so claimants can rebuild the replay the engine verifies.
package indexer

import (
	"errors"
	"fmt"

	"github.com/alex-kampa/realitycheck/foundation/realitycheck/history"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sasha-s/go-deadlock"
)

// Set of error variables for the indexer.
var (
	ErrOutOfOrder = errors.New("record does not extend the chain head")
	ErrCorrupt    = errors.New("stored records do not form a chain")
)

// EventHandler defines a function that is called when events
// occur in the indexer.
type EventHandler func(v string, args ...any)

// Storage interface represents the behavior required to be implemented by any
// package providing support for reading and writing records.
type Storage interface {
	Write(seq uint64, rec history.Record) error
	Records(questionID common.Hash) ([]history.Record, error)
	Questions() ([]common.Hash, error)
	Close() error
}

// =============================================================================

type head struct {
	seq  uint64
	hash common.Hash
}

// Indexer records every accepted submission and rebuilds replays on request.
// It implements the state.Recorder interface.
type Indexer struct {
	storage   Storage
	evHandler EventHandler

	mu    deadlock.RWMutex
	heads map[common.Hash]head
}

// New constructs an indexer over the storage and loads the heads of the
// chains already stored.
func New(storage Storage, evHandler EventHandler) (*Indexer, error) {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	idx := Indexer{
		storage:   storage,
		evHandler: ev,
		heads:     make(map[common.Hash]head),
	}

	questions, err := storage.Questions()
	if err != nil {
		return nil, fmt.Errorf("loading questions: %w", err)
	}

	for _, questionID := range questions {
		records, err := storage.Records(questionID)
		if err != nil {
			return nil, fmt.Errorf("loading question[%s]: %w", questionID, err)
		}

		var chain history.Chain
		for i, rec := range records {
			if rec.PrevHash != chain.Head() {
				return nil, fmt.Errorf("question[%s] record %d: %w", questionID, i, ErrCorrupt)
			}
			chain.Append(rec)
		}

		idx.heads[questionID] = head{seq: uint64(len(records)), hash: chain.Head()}
	}

	ev("indexer: New: loaded questions[%d]", len(questions))

	return &idx, nil
}

// Close releases the storage.
func (idx *Indexer) Close() error {
	return idx.storage.Close()
}

// Record stores the record if it extends the current head of its chain.
func (idx *Indexer) Record(rec history.Record) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	h := idx.heads[rec.QuestionID]
	if rec.PrevHash != h.hash {
		return fmt.Errorf("question[%s] head[%s]: %w", rec.QuestionID, h.hash, ErrOutOfOrder)
	}

	if err := idx.storage.Write(h.seq, rec); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}

	idx.heads[rec.QuestionID] = head{seq: h.seq + 1, hash: rec.Hash()}

	idx.evHandler("indexer: Record: question[%s] seq[%d] head[%s]", rec.QuestionID, h.seq, rec.Hash())

	return nil
}

// Head returns the head of the chain for the question.
func (idx *Indexer) Head(questionID common.Hash) common.Hash {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.heads[questionID].hash
}

// Records returns the records for the question in the order they were
// accepted.
func (idx *Indexer) Records(questionID common.Hash) ([]history.Record, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.storage.Records(questionID)
}

// Replay returns the records for the question ready to be claimed.
func (idx *Indexer) Replay(questionID common.Hash) (history.Replay, error) {
	records, err := idx.Records(questionID)
	if err != nil {
		return history.Replay{}, err
	}

	return history.NewReplay(records), nil
}

// Questions returns the ids of every question with records.
func (idx *Indexer) Questions() []common.Hash {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]common.Hash, 0, len(idx.heads))
	for questionID := range idx.heads {
		out = append(out, questionID)
	}
	return out
}
