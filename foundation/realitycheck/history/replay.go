package history

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrBrokenChain is returned by Verify when a replay does not link back
// to the expected head.
var ErrBrokenChain = errors.New("replay does not link to the chain head")

// =============================================================================

// Replay is the list of records a claimant presents, ordered from the most
// recent record to the oldest. HistoryHashes[i] is the head of the chain
// before record i was appended.
type Replay struct {
	HistoryHashes []common.Hash    `json:"history_hashes"`
	Addrs         []common.Address `json:"addrs"`
	Bonds         []uint64         `json:"bonds"`
	Answers       []common.Hash    `json:"answers"`
}

// NewReplay constructs a replay from records kept in the order they were
// accepted.
func NewReplay(records []Record) Replay {
	n := len(records)

	rp := Replay{
		HistoryHashes: make([]common.Hash, n),
		Addrs:         make([]common.Address, n),
		Bonds:         make([]uint64, n),
		Answers:       make([]common.Hash, n),
	}

	for i, rec := range records {
		j := n - 1 - i
		rp.HistoryHashes[j] = rec.PrevHash
		rp.Addrs[j] = rec.Addr
		rp.Bonds[j] = rec.Bond
		rp.Answers[j] = rec.Answer
	}

	return rp
}

// Len returns the number of records in the replay.
func (rp Replay) Len() int {
	return len(rp.HistoryHashes)
}

// Even reports whether all four sequences have the same length.
func (rp Replay) Even() bool {
	n := len(rp.HistoryHashes)
	return len(rp.Addrs) == n && len(rp.Bonds) == n && len(rp.Answers) == n
}

// Slice returns the records in the range [from, to). Replays can be split
// this way to settle a long history over several calls.
func (rp Replay) Slice(from int, to int) Replay {
	return Replay{
		HistoryHashes: rp.HistoryHashes[from:to],
		Addrs:         rp.Addrs[from:to],
		Bonds:         rp.Bonds[from:to],
		Answers:       rp.Answers[from:to],
	}
}

// Verify walks the replay from the specified head and checks every record
// links to the next. The replay must end at the genesis of the chain.
func Verify(head common.Hash, rp Replay) error {
	if !rp.Even() {
		return errors.New("replay sequences have different lengths")
	}

	expected := head
	for i := range rp.HistoryHashes {
		if expected == ZeroHash {
			return fmt.Errorf("record %d: %w: records past genesis", i, ErrBrokenChain)
		}

		if expected != Hash(rp.HistoryHashes[i], rp.Addrs[i], rp.Bonds[i], rp.Answers[i]) {
			return fmt.Errorf("record %d: %w", i, ErrBrokenChain)
		}
		expected = rp.HistoryHashes[i]
	}

	if expected != ZeroHash {
		return fmt.Errorf("%w: genesis not reached", ErrBrokenChain)
	}

	return nil
}

// =============================================================================

// Chain keeps the full list of records for one question in the order they
// were accepted. This is what an indexer or a client maintains off to the side
// of the engine.
type Chain struct {
	records []Record
}

// Append adds the record to the end of the chain.
func (c *Chain) Append(rec Record) {
	c.records = append(c.records, rec)
}

// Head returns the current head of the chain.
func (c *Chain) Head() common.Hash {
	if len(c.records) == 0 {
		return ZeroHash
	}
	return c.records[len(c.records)-1].Hash()
}

// Records returns a copy of the records in the chain.
func (c *Chain) Records() []Record {
	return append([]Record(nil), c.records...)
}

// Replay returns the chain as a replay for claiming.
func (c *Chain) Replay() Replay {
	return NewReplay(c.records)
}
