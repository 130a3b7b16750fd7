package state

import (
	"fmt"

	"github.com/alex-kampa/realitycheck/foundation/realitycheck/balance"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/history"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// RequestArbitration pays the arbitrator's fee and freezes the clock until
// the arbitrator answers.
func (s *State) RequestArbitration(questionID common.Hash, fee uint64, requester common.Address) error {
	e, err := s.lookup(questionID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.question.checkArbitrationRequest(s.timestamp()); err != nil {
		return fmt.Errorf("question[%s]: %w", questionID, err)
	}

	arb, err := s.arbitrator(e.question.Arbitrator)
	if err != nil {
		return err
	}

	if required := arb.GetFee(questionID); fee < required {
		return fmt.Errorf("question[%s] fee[%d] required[%d]: %w", questionID, fee, required, ErrInsufficientFee)
	}

	bounty, overflow := math.SafeAdd(e.question.ArbitrationBounty, fee)
	if overflow {
		return fmt.Errorf("question[%s] fee[%d]: %w", questionID, fee, ErrOverflow)
	}

	if err := arb.NotifyOfArbitrationRequest(questionID, requester); err != nil {
		return fmt.Errorf("notifying arbitrator: %w", err)
	}

	e.question.FinalizeTS = tsPendingArbitration
	e.question.ArbitrationBounty = bounty

	s.evHandler("state: RequestArbitration: question[%s] requester[%s] fee[%d]", questionID, requester, fee)

	return nil
}

// NotifyOfArbitrationRequest is called by an arbitrator that collected the
// request itself. Only the question's arbitrator can make this call.
func (s *State) NotifyOfArbitrationRequest(questionID common.Hash, requester common.Address, caller common.Address) error {
	e, err := s.lookup(questionID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.question.Arbitrator {
		return fmt.Errorf("question[%s] caller[%s]: %w", questionID, caller, ErrUnauthorized)
	}

	if err := e.question.checkArbitrationRequest(s.timestamp()); err != nil {
		return fmt.Errorf("question[%s]: %w", questionID, err)
	}

	e.question.FinalizeTS = tsPendingArbitration

	s.evHandler("state: NotifyOfArbitrationRequest: question[%s] requester[%s]", questionID, requester)

	return nil
}

// SubmitAnswerByArbitrator records the arbitrator's answer on top of the chain
// and finalizes the question immediately. The payee is treated as the holder
// of that answer during settlement.
func (s *State) SubmitAnswerByArbitrator(questionID common.Hash, answer common.Hash, payee common.Address, caller common.Address) error {
	e, err := s.lookup(questionID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.question.Arbitrator {
		return fmt.Errorf("question[%s] caller[%s]: %w", questionID, caller, ErrUnauthorized)
	}

	if !e.question.isPendingArbitration() {
		return fmt.Errorf("question[%s]: %w", questionID, ErrArbitrationNotRequested)
	}

	now := s.timestamp()

	rec := history.Record{
		QuestionID: questionID,
		PrevHash:   e.question.HistoryHash,
		Addr:       payee,
		Bond:       0,
		Answer:     answer,
		TimeStamp:  now,
	}

	fee := e.question.ArbitrationBounty

	// The fee is only credited once the record is written.
	if err := s.ledger.ApplyWith(balance.Credits{caller: fee}, func() error { return s.record(rec) }); err != nil {
		return fmt.Errorf("question[%s]: %w", questionID, err)
	}

	// The arbitrator's record carries no bond so the top bond is left alone.
	e.question.HistoryHash = rec.Hash()
	e.question.BestAnswer = answer
	e.question.BestCommitment = history.ZeroHash
	e.question.FinalizeTS = max(now, tsPendingArbitration+1)
	e.question.ArbitrationBounty = 0

	s.evHandler("state: SubmitAnswerByArbitrator: question[%s] answer[%s] payee[%s] fee[%d]", questionID, answer, payee, fee)

	return nil
}

// checkArbitrationRequest validates arbitration can be requested.
func (q Question) checkArbitrationRequest(now uint64) error {
	switch {
	case q.isPendingArbitration():
		return ErrArbitrationPending
	case q.isFinalized(now):
		return ErrAlreadyFinalized
	}
	return nil
}
