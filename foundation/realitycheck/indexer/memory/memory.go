// Package memory implements the indexer storage in memory.
package memory

import (
	"fmt"

	"github.com/alex-kampa/realitycheck/foundation/realitycheck/history"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sasha-s/go-deadlock"
)

// Memory keeps the records of each question in a slice. This implements the
// indexer.Storage interface.
type Memory struct {
	mu      deadlock.RWMutex
	records map[common.Hash][]history.Record
}

// New constructs an empty store.
func New() *Memory {
	return &Memory{
		records: make(map[common.Hash][]history.Record),
	}
}

// Write stores the record at the sequence number within its question.
func (m *Memory) Write(seq uint64, rec history.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := m.records[rec.QuestionID]
	if seq != uint64(len(records)) {
		return fmt.Errorf("question[%s] seq[%d]: expected seq[%d]", rec.QuestionID, seq, len(records))
	}

	m.records[rec.QuestionID] = append(records, rec)
	return nil
}

// Records returns a copy of the records for the question.
func (m *Memory) Records(questionID common.Hash) ([]history.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]history.Record(nil), m.records[questionID]...), nil
}

// Questions returns the ids of every question with records.
func (m *Memory) Questions() ([]common.Hash, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]common.Hash, 0, len(m.records))
	for questionID := range m.records {
		out = append(out, questionID)
	}
	return out, nil
}

// Close has nothing to release.
func (m *Memory) Close() error {
	return nil
}
