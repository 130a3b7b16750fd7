package state

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/alex-kampa/realitycheck/foundation/realitycheck/balance"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/history"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// settlement holds the outcome of walking a replay before any of it is
// applied to the entry or the ledger.
type settlement struct {
	question Question
	claim    *Claim
	credits  balance.Credits
	records  int
}

// ClaimWinnings verifies the replay against the chain and credits the accounts
// owed by the records it covers. The replay runs from the most recent record
// down. A replay that stops before genesis leaves a partial claim behind and
// the next call continues from there. Anyone can make this call.
func (s *State) ClaimWinnings(questionID common.Hash, rp history.Replay) error {
	e, err := s.lookup(questionID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.settle(s.timestamp(), rp)
	if err != nil {
		return fmt.Errorf("question[%s]: %w", questionID, err)
	}

	if err := s.ledger.Apply(st.credits); err != nil {
		return fmt.Errorf("question[%s]: %w", questionID, err)
	}

	s.commit(e, st)

	return nil
}

// ClaimMultipleAndWithdrawBalance claims several questions in one call and
// then withdraws whatever the caller is owed. The replays are concatenated in
// the order of the question ids, lengths gives the number of records for each.
// Either every claim is applied or none are.
func (s *State) ClaimMultipleAndWithdrawBalance(questionIDs []common.Hash, lengths []int, rp history.Replay, caller common.Address) (uint64, error) {
	if len(questionIDs) != len(lengths) {
		return 0, fmt.Errorf("%w: %d questions, %d lengths", ErrInvalidReplay, len(questionIDs), len(lengths))
	}

	if !rp.Even() {
		return 0, fmt.Errorf("%w: sequences have different lengths", ErrInvalidReplay)
	}

	var total int
	for _, n := range lengths {
		if n < 0 {
			return 0, fmt.Errorf("%w: negative length", ErrInvalidReplay)
		}
		total += n
	}
	if total != rp.Len() {
		return 0, fmt.Errorf("%w: lengths cover %d records, replay has %d", ErrInvalidReplay, total, rp.Len())
	}

	entries := make([]*entry, len(questionIDs))
	seen := make(map[common.Hash]bool, len(questionIDs))
	for i, questionID := range questionIDs {
		if seen[questionID] {
			return 0, fmt.Errorf("%w: question[%s] listed twice", ErrInvalidReplay, questionID)
		}
		seen[questionID] = true

		e, err := s.lookup(questionID)
		if err != nil {
			return 0, err
		}
		entries[i] = e
	}

	// Lock in id order so two batches over the same questions can't deadlock.
	locked := append([]*entry(nil), entries...)
	sort.Slice(locked, func(i, j int) bool {
		return bytes.Compare(locked[i].question.ID.Bytes(), locked[j].question.ID.Bytes()) < 0
	})
	for _, e := range locked {
		e.mu.Lock()
		defer e.mu.Unlock()
	}

	now := s.timestamp()
	settlements := make([]settlement, len(entries))
	credits := balance.Credits{}

	var from int
	for i, e := range entries {
		st, err := e.settle(now, rp.Slice(from, from+lengths[i]))
		if err != nil {
			return 0, fmt.Errorf("question[%s]: %w", questionIDs[i], err)
		}

		if err := credits.Merge(st.credits); err != nil {
			return 0, fmt.Errorf("question[%s]: %w", questionIDs[i], err)
		}

		settlements[i] = st
		from += lengths[i]
	}

	if err := s.ledger.Apply(credits); err != nil {
		return 0, err
	}

	for i, e := range entries {
		s.commit(e, settlements[i])
	}

	value, err := s.ledger.Withdraw(caller)
	if err != nil {
		// Claiming on behalf of others leaves nothing for the caller.
		if errors.Is(err, balance.ErrNothingToWithdraw) {
			return 0, nil
		}
		return 0, fmt.Errorf("account[%s]: %w", caller, err)
	}

	s.evHandler("state: ClaimMultipleAndWithdrawBalance: caller[%s] questions[%d] withdrawn[%d]", caller, len(questionIDs), value)

	return value, nil
}

// commit moves the entry to the state left by a settlement whose credits
// have been applied to the ledger.
func (s *State) commit(e *entry, st settlement) {
	e.question = st.question
	e.claim = st.claim

	for account, value := range st.credits {
		s.evHandler("state: ClaimWinnings: question[%s] payee[%s] credited[%d]", e.question.ID, account, value)
	}

	if st.records > 0 && st.question.Claimed {
		s.evHandler("state: ClaimWinnings: question[%s] fully claimed", e.question.ID)
	}
}

// =============================================================================

// settle walks the replay down the chain from the current head or from where
// an earlier partial claim stopped.
//
// Each record's bond is added to the pot when the walk moves past it, so
// the pot always belongs to the account holding the correct answer nearest
// above. The first correct record found also takes the bounty. When a
// different account is found lower down with the correct answer, it takes
// over the pot from there and is paid a takeover fee equal to its own bond
// out of the pot of the account above.
func (e *entry) settle(now uint64, rp history.Replay) (settlement, error) {
	st := settlement{
		question: e.question,
		claim:    e.claim,
		credits:  balance.Credits{},
	}

	if e.question.Claimed {
		return st, nil
	}

	final, err := e.question.finalAnswer(now)
	if err != nil {
		return settlement{}, err
	}

	if !rp.Even() {
		return settlement{}, fmt.Errorf("%w: sequences have different lengths", ErrInvalidReplay)
	}

	if rp.Len() == 0 {
		return st, nil
	}

	c := Claim{Head: e.question.HistoryHash}
	resumed := e.claim != nil
	if resumed {
		c = *e.claim
	}

	for i := range rp.HistoryHashes {
		if c.Head == history.ZeroHash {
			return settlement{}, fmt.Errorf("record %d: %w: records past genesis", i, ErrHistoryMismatch)
		}

		if c.Head != history.Hash(rp.HistoryHashes[i], rp.Addrs[i], rp.Bonds[i], rp.Answers[i]) {
			if i == 0 && resumed {
				return settlement{}, fmt.Errorf("expected head[%s]: %w", c.Head, ErrPartialClaimAlreadyOpen)
			}
			return settlement{}, fmt.Errorf("record %d: %w", i, ErrHistoryMismatch)
		}

		if c.Pot, err = add(c.Pot, c.LastBond); err != nil {
			return settlement{}, fmt.Errorf("record %d: %w", i, err)
		}

		addr := rp.Addrs[i]
		if answer, ok := e.resolve(rp.Answers[i]); ok && answer == final {
			switch {
			case !c.HasPayee:
				if c.Pot, err = add(c.Pot, st.question.Bounty); err != nil {
					return settlement{}, fmt.Errorf("record %d: %w", i, err)
				}
				c.Payee = addr
				c.HasPayee = true
				st.question.Bounty = 0

			case addr != c.Payee:
				fee := min(rp.Bonds[i], c.Pot)
				if err := st.credits.Add(c.Payee, c.Pot-fee); err != nil {
					return settlement{}, fmt.Errorf("record %d: %w", i, err)
				}
				c.Payee = addr
				c.Pot = fee
			}
		}

		c.LastBond = rp.Bonds[i]
		c.Head = rp.HistoryHashes[i]
	}

	st.records = rp.Len()

	if c.Head == history.ZeroHash {
		if c.Pot, err = add(c.Pot, c.LastBond); err != nil {
			return settlement{}, err
		}
		if c.HasPayee {
			if err := st.credits.Add(c.Payee, c.Pot); err != nil {
				return settlement{}, err
			}
		}
		st.question.Claimed = true
		st.claim = nil
		return st, nil
	}

	// Whatever has been queued for the payee so far can't be taken back by
	// records further down.
	if c.HasPayee {
		if err := st.credits.Add(c.Payee, c.Pot); err != nil {
			return settlement{}, err
		}
		c.Pot = 0
	}
	st.claim = &c

	return st, nil
}

// add returns the sum of two amounts held by the contract.
func add(a, b uint64) (uint64, error) {
	sum, overflow := math.SafeAdd(a, b)
	if overflow {
		return 0, ErrOverflow
	}
	return sum, nil
}

// resolve returns the answer carried by an answer slot. Commitment ids are
// replaced by the revealed answer, unrevealed commitments carry no answer.
func (e *entry) resolve(slot common.Hash) (common.Hash, bool) {
	c, exists := e.commitments[slot]
	if !exists {
		return slot, true
	}

	if !c.Revealed {
		return common.Hash{}, false
	}

	return c.Answer, true
}
