package state

import (
	"math"

	"github.com/alex-kampa/realitycheck/foundation/realitycheck/history"
	"github.com/ethereum/go-ethereum/common"
)

// Set of values the finalization timestamp can hold besides a deadline.
const (
	tsUnanswered         = 0
	tsPendingArbitration = 1
)

// Status represents where a question is in its life cycle.
type Status string

// Set of statuses a question can be in.
const (
	StatusUnanswered         Status = "unanswered"
	StatusOpen               Status = "open"
	StatusPendingArbitration Status = "pending_arbitration"
	StatusFinalized          Status = "finalized"
)

// =============================================================================

// Question represents the mutable state the engine keeps for a question.
type Question struct {
	ID                common.Hash    `json:"id"`
	ContentHash       common.Hash    `json:"content_hash"`
	Asker             common.Address `json:"asker"`
	Arbitrator        common.Address `json:"arbitrator"`
	StepDelay         uint64         `json:"step_delay"`         // Seconds of silence required to finalize.
	Bounty            uint64         `json:"bounty"`             // Paid to the winner, zero once claimed.
	ArbitrationBounty uint64         `json:"arbitration_bounty"` // Fees paid for arbitration.
	HistoryHash       common.Hash    `json:"history_hash"`       // Head of the answer chain.
	FinalizeTS        uint64         `json:"finalize_ts"`        // 0 unanswered, 1 pending arbitration, deadline otherwise.
	Bond              uint64         `json:"bond"`               // Highest bond accepted so far.
	BestAnswer        common.Hash    `json:"best_answer"`
	BestCommitment    common.Hash    `json:"best_commitment"` // Set while the best answer is an unrevealed commitment.
	Claimed           bool           `json:"claimed"`
	Status            Status         `json:"status"`
}

// isPendingArbitration reports whether arbitration has been requested and
// not yet answered.
func (q Question) isPendingArbitration() bool {
	return q.FinalizeTS == tsPendingArbitration
}

// isFinalized reports whether the answer is final at the specified time.
func (q Question) isFinalized(now uint64) bool {
	return q.FinalizeTS > tsPendingArbitration && now >= q.FinalizeTS
}

// status derives the life cycle status at the specified time.
func (q Question) status(now uint64) Status {
	switch {
	case q.isPendingArbitration():
		return StatusPendingArbitration
	case q.isFinalized(now):
		return StatusFinalized
	case q.FinalizeTS == tsUnanswered:
		return StatusUnanswered
	}
	return StatusOpen
}

// finalAnswer returns the answer that settlement pays out on.
func (q Question) finalAnswer(now uint64) (common.Hash, error) {
	if !q.isFinalized(now) {
		return common.Hash{}, ErrNotFinalized
	}

	if q.BestCommitment != history.ZeroHash {
		return common.Hash{}, ErrNotRevealed
	}

	return q.BestAnswer, nil
}

// checkBond applies the bond escalation rule to a new submission.
func (q Question) checkBond(now uint64, claimedTopBond uint64, bond uint64) error {
	if q.isPendingArbitration() || q.isFinalized(now) {
		return ErrAlreadyFinalized
	}

	if claimedTopBond != q.Bond {
		return ErrStaleBondView
	}

	// The first answer can be posted without a bond.
	if q.HistoryHash == history.ZeroHash {
		return nil
	}

	if bond == 0 || q.Bond > math.MaxUint64/2 || bond < 2*q.Bond {
		return ErrInsufficientBond
	}

	return nil
}

// =============================================================================

// Commitment represents an answer hidden behind a hash until it is revealed.
type Commitment struct {
	ID             common.Hash    `json:"id"`
	Sender         common.Address `json:"sender"`
	Bond           uint64         `json:"bond"`
	RevealDeadline uint64         `json:"reveal_deadline"`
	Revealed       bool           `json:"revealed"`
	Answer         common.Hash    `json:"answer"`
}

// Claim represents where a partial settlement stopped so the next call can
// pick up the walk down the chain.
type Claim struct {
	Head     common.Hash    `json:"head"`      // Head the next record must hash to.
	Payee    common.Address `json:"payee"`     // Account currently owed.
	HasPayee bool           `json:"has_payee"` // Payee has been set.
	LastBond uint64         `json:"last_bond"` // Bond of the last record processed.
	Pot      uint64         `json:"pot"`       // Funds queued for the payee.
}
