package state

import (
	"fmt"

	"github.com/alex-kampa/realitycheck/foundation/realitycheck/history"
	"github.com/ethereum/go-ethereum/common"
)

// SubmitAnswer accepts a bonded answer. The caller states the top bond it
// believes is current so a submission made on an outdated view fails instead
// of escalating further than intended.
func (s *State) SubmitAnswer(questionID common.Hash, answer common.Hash, claimedTopBond uint64, bond uint64, sender common.Address) error {
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

	rec := history.Record{
		QuestionID: questionID,
		PrevHash:   e.question.HistoryHash,
		Addr:       sender,
		Bond:       bond,
		Answer:     answer,
		TimeStamp:  now,
	}

	if err := s.record(rec); err != nil {
		return err
	}

	e.accept(rec, now)

	s.evHandler("state: SubmitAnswer: question[%s] sender[%s] bond[%d] answer[%s] finalize[%d]", questionID, sender, bond, answer, e.question.FinalizeTS)

	return nil
}
