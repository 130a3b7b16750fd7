package state

import (
	"fmt"

	"github.com/alex-kampa/realitycheck/foundation/realitycheck/history"
	"github.com/ethereum/go-ethereum/common"
)

// SubmitAnswerCommitment accepts a bonded answer hidden behind a commitment
// hash. The same bond rules apply as for a plain answer. The chain carries the
// commitment id until the answer is revealed.
func (s *State) SubmitAnswerCommitment(questionID common.Hash, commitmentHash common.Hash, claimedTopBond uint64, bond uint64, sender common.Address) error {
	e, err := s.lookup(questionID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := s.timestamp()

	if err := e.question.checkBond(now, claimedTopBond, bond); err != nil {
		return fmt.Errorf("question[%s] bond[%d] top[%d]: %w", questionID, bond, e.question.Bond, err)
	}

	commitmentID := history.CommitmentID(questionID, commitmentHash, bond)

	rec := history.Record{
		QuestionID: questionID,
		PrevHash:   e.question.HistoryHash,
		Addr:       sender,
		Bond:       bond,
		Answer:     commitmentID,
		Commitment: true,
		TimeStamp:  now,
	}

	if err := s.record(rec); err != nil {
		return err
	}

	e.accept(rec, now)
	e.question.BestCommitment = commitmentID

	e.commitments[commitmentID] = Commitment{
		ID:             commitmentID,
		Sender:         sender,
		Bond:           bond,
		RevealDeadline: now + s.revealWindow(e.question.StepDelay),
	}
	e.byBond[bond] = commitmentID

	s.evHandler("state: SubmitAnswerCommitment: question[%s] sender[%s] bond[%d] commitment[%s]", questionID, sender, bond, commitmentID)

	return nil
}

// SubmitAnswerReveal reveals the answer behind the commitment made with the
// specified bond.
func (s *State) SubmitAnswerReveal(questionID common.Hash, answer common.Hash, nonce uint64, bond uint64, sender common.Address) error {
	e, err := s.lookup(questionID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := s.timestamp()

	if e.question.isFinalized(now) {
		return fmt.Errorf("question[%s]: %w", questionID, ErrAlreadyFinalized)
	}

	commitmentID, exists := e.byBond[bond]
	if !exists {
		return fmt.Errorf("question[%s] bond[%d]: no commitment: %w", questionID, bond, ErrCommitmentMismatch)
	}
	c := e.commitments[commitmentID]

	if now > c.RevealDeadline {
		return fmt.Errorf("question[%s] bond[%d] deadline[%d]: %w", questionID, bond, c.RevealDeadline, ErrRevealExpired)
	}

	if c.Revealed {
		return fmt.Errorf("question[%s] bond[%d]: %w", questionID, bond, ErrAlreadyRevealed)
	}

	if c.Sender != sender {
		return fmt.Errorf("question[%s] bond[%d]: sender: %w", questionID, bond, ErrCommitmentMismatch)
	}

	if history.CommitmentID(questionID, history.CommitmentHash(answer, nonce), bond) != commitmentID {
		return fmt.Errorf("question[%s] bond[%d]: %w", questionID, bond, ErrCommitmentMismatch)
	}

	c.Revealed = true
	c.Answer = answer
	e.commitments[commitmentID] = c

	// Only the top of the chain decides the final answer.
	if e.question.BestCommitment == commitmentID {
		e.question.BestAnswer = answer
		e.question.BestCommitment = history.ZeroHash
	}

	s.evHandler("state: SubmitAnswerReveal: question[%s] sender[%s] bond[%d] answer[%s]", questionID, sender, bond, answer)

	return nil
}

// revealWindow returns the number of seconds a commitment has to be revealed.
func (s *State) revealWindow(stepDelay uint64) uint64 {
	window := stepDelay / s.revealDivisor
	if window == 0 {
		window = 1
	}
	return window
}
