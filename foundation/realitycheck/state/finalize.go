package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// IsFinalized reports whether the question has a final answer. The clock is
// evaluated at the time of the call.
func (s *State) IsFinalized(questionID common.Hash) (bool, error) {
	e, err := s.lookup(questionID)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.question.isFinalized(s.timestamp()), nil
}

// GetFinalAnswer returns the final answer for the question.
func (s *State) GetFinalAnswer(questionID common.Hash) (common.Hash, error) {
	e, err := s.lookup(questionID)
	if err != nil {
		return common.Hash{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	answer, err := e.question.finalAnswer(s.timestamp())
	if err != nil {
		return common.Hash{}, fmt.Errorf("question[%s]: %w", questionID, err)
	}

	return answer, nil
}
