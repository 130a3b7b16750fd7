package state

import (
	"fmt"
	"sort"

	"github.com/alex-kampa/realitycheck/foundation/realitycheck/history"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// AskQuestion registers a new question with the bounty that will be paid to
// whoever ends up holding the final answer.
func (s *State) AskQuestion(content string, arbitrator common.Address, stepDelay uint64, nonce uint64, bounty uint64, asker common.Address) (common.Hash, error) {
	if stepDelay == 0 {
		return common.Hash{}, ErrInvalidStepDelay
	}

	contentHash := history.ContentHash(content)
	questionID := history.QuestionID(contentHash, asker, nonce)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.arbitrators[arbitrator]; !exists {
		return common.Hash{}, fmt.Errorf("arbitrator[%s]: %w", arbitrator, ErrUnknownArbitrator)
	}

	if _, exists := s.questions[questionID]; exists {
		return common.Hash{}, fmt.Errorf("question[%s]: %w", questionID, ErrQuestionExists)
	}

	s.questions[questionID] = &entry{
		question: Question{
			ID:          questionID,
			ContentHash: contentHash,
			Asker:       asker,
			Arbitrator:  arbitrator,
			StepDelay:   stepDelay,
			Bounty:      bounty,
			HistoryHash: history.ZeroHash,
		},
		commitments: make(map[common.Hash]Commitment),
		byBond:      make(map[uint64]common.Hash),
	}

	s.evHandler("state: AskQuestion: question[%s] asker[%s] arbitrator[%s] bounty[%d]", questionID, asker, arbitrator, bounty)

	return questionID, nil
}

// FundAnswerBounty adds to the bounty of a question that is still open.
func (s *State) FundAnswerBounty(questionID common.Hash, amount uint64, funder common.Address) error {
	e, err := s.lookup(questionID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	q := e.question
	if q.isPendingArbitration() || q.isFinalized(s.timestamp()) {
		return fmt.Errorf("question[%s]: %w", questionID, ErrAlreadyFinalized)
	}

	bounty, overflow := math.SafeAdd(q.Bounty, amount)
	if overflow {
		return fmt.Errorf("question[%s] bounty[%d] amount[%d]: %w", questionID, q.Bounty, amount, ErrOverflow)
	}
	e.question.Bounty = bounty

	s.evHandler("state: FundAnswerBounty: question[%s] funder[%s] amount[%d] bounty[%d]", questionID, funder, amount, e.question.Bounty)

	return nil
}

// =============================================================================

// QueryQuestion returns a copy of the question with its current status.
func (s *State) QueryQuestion(questionID common.Hash) (Question, error) {
	e, err := s.lookup(questionID)
	if err != nil {
		return Question{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	q := e.question
	q.Status = q.status(s.timestamp())

	return q, nil
}

// QueryCommitments returns a copy of the commitments made for the question
// ordered by bond.
func (s *State) QueryCommitments(questionID common.Hash) ([]Commitment, error) {
	e, err := s.lookup(questionID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Commitment, 0, len(e.commitments))
	for _, c := range e.commitments {
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Bond < out[j].Bond
	})

	return out, nil
}

// QueryClaim returns the partial claim open for the question, if any.
func (s *State) QueryClaim(questionID common.Hash) (Claim, bool, error) {
	e, err := s.lookup(questionID)
	if err != nil {
		return Claim{}, false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.claim == nil {
		return Claim{}, false, nil
	}

	return *e.claim, true, nil
}
