package questiongrp

import (
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/history"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/state"
	"github.com/ethereum/go-ethereum/common"
)

// NewQuestion is what a client signs to ask a question.
type NewQuestion struct {
	Content    string `json:"content" validate:"required"`
	Arbitrator string `json:"arbitrator" validate:"required,eth_addr"`
	StepDelay  uint64 `json:"step_delay" validate:"required"`
	Nonce      uint64 `json:"nonce"`
	Bounty     uint64 `json:"bounty"`
}

// Funding is what a client signs to add to the bounty of a question.
type Funding struct {
	Amount uint64 `json:"amount" validate:"required"`
}

// NewAnswer is what a client signs to submit a bonded answer.
type NewAnswer struct {
	Answer         string `json:"answer" validate:"required,hash"`
	ClaimedTopBond uint64 `json:"claimed_top_bond"`
	Bond           uint64 `json:"bond"`
}

// NewCommitment is what a client signs to submit a bonded answer hidden
// behind a commitment hash.
type NewCommitment struct {
	CommitmentHash string `json:"commitment_hash" validate:"required,hash"`
	ClaimedTopBond uint64 `json:"claimed_top_bond"`
	Bond           uint64 `json:"bond"`
}

// Reveal is what a client signs to reveal a committed answer.
type Reveal struct {
	Answer string `json:"answer" validate:"required,hash"`
	Nonce  uint64 `json:"nonce"`
	Bond   uint64 `json:"bond"`
}

// ArbitrationRequest is what a client signs to ask for arbitration.
type ArbitrationRequest struct {
	Fee uint64 `json:"fee"`
}

// ArbitrationAnswer is what the arbitrator owner signs to settle a question.
type ArbitrationAnswer struct {
	Answer string `json:"answer" validate:"required,hash"`
	Payee  string `json:"payee" validate:"required,eth_addr"`
}

// ClaimRequest carries the records to settle. When the replay is left out
// it is rebuilt from the node's history.
type ClaimRequest struct {
	Replay *history.Replay `json:"replay"`
}

// CallbackFunding is what a client signs to fund a callback. A URL registers
// a webhook for the client and can only be set by the client itself.
type CallbackFunding struct {
	Client string `json:"client" validate:"required,eth_addr"`
	Budget string `json:"budget" validate:"required"`
	Value  uint64 `json:"value"`
	URL    string `json:"url" validate:"omitempty,url"`
}

// CallbackSend is what a client signs to deliver a funded callback.
type CallbackSend struct {
	Client    string `json:"client" validate:"required,eth_addr"`
	Budget    string `json:"budget" validate:"required"`
	MinReward uint64 `json:"min_reward"`
}

// =============================================================================

// Question is the view of a question returned to clients.
type Question struct {
	state.Question
	Commitments []state.Commitment `json:"commitments"`
	Claim       *state.Claim       `json:"claim,omitempty"`
}

// Final is the final answer of a question.
type Final struct {
	QuestionID common.Hash `json:"question_id"`
	Answer     common.Hash `json:"answer"`
}

// History is the full set of records kept for a question and the replay a
// claimant needs to present.
type History struct {
	Head    common.Hash      `json:"head"`
	Records []history.Record `json:"records"`
	Replay  history.Replay   `json:"replay"`
}
