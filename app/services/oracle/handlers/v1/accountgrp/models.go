package accountgrp

import (
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/arbitrator"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/history"
	"github.com/ethereum/go-ethereum/common"
)

// Balance is what the oracle owes an account.
type Balance struct {
	Account common.Address `json:"account"`
	Name    string         `json:"name"`
	Balance uint64         `json:"balance"`
}

// Withdrawal is what an account signs to withdraw its balance. The timestamp
// makes each signed request unique.
type Withdrawal struct {
	TimeStamp uint64 `json:"timestamp" validate:"required"`
}

// Withdrawn reports the amount paid out.
type Withdrawn struct {
	Account common.Address `json:"account"`
	Value   uint64         `json:"value"`
}

// Claims is what an account signs to settle several questions and withdraw
// its balance. Lengths gives the number of replay records per question.
type Claims struct {
	QuestionIDs []common.Hash  `json:"question_ids" validate:"required,min=1"`
	Lengths     []int          `json:"lengths" validate:"required,min=1"`
	Replay      history.Replay `json:"replay"`
}

// Fee is what the arbitrator owner signs to change a fee. Without a question
// id the default fee is changed.
type Fee struct {
	QuestionID string `json:"question_id" validate:"omitempty,hash"`
	Fee        uint64 `json:"fee"`
}

// ArbitrationRequest is what a client signs to pay the arbitrator directly
// for arbitration of a question.
type ArbitrationRequest struct {
	QuestionID string `json:"question_id" validate:"required,hash"`
	Fee        uint64 `json:"fee"`
}

// Arbitrator is the view of the node's arbitrator.
type Arbitrator struct {
	Address   common.Address       `json:"address"`
	Name      string               `json:"name"`
	Fee       uint64               `json:"fee"`
	Collected uint64               `json:"collected"`
	Pending   []arbitrator.Request `json:"pending"`
}
