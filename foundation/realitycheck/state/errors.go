package state

import (
	"errors"

	"github.com/alex-kampa/realitycheck/foundation/realitycheck/balance"
)

// Set of error variables for submitting answers.
var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrQuestionExists   = errors.New("question already exists")
	ErrInvalidStepDelay = errors.New("step delay must be greater than zero")
	ErrInsufficientBond = errors.New("bond must be at least double the current bond")
	ErrStaleBondView    = errors.New("claimed top bond does not match the current bond")
	ErrAlreadyFinalized = errors.New("question is finalized or pending arbitration")
)

// Set of error variables for finalization and commitments.
var (
	ErrNotFinalized       = errors.New("question is not finalized")
	ErrNotRevealed        = errors.New("best answer is a commitment that has not been revealed")
	ErrRevealExpired      = errors.New("reveal deadline has passed")
	ErrCommitmentMismatch = errors.New("reveal does not match the commitment")
	ErrAlreadyRevealed    = errors.New("commitment has already been revealed")
)

// Set of error variables for arbitration.
var (
	ErrUnauthorized            = errors.New("caller is not the arbitrator for this question")
	ErrUnknownArbitrator       = errors.New("arbitrator is not registered")
	ErrArbitrationNotRequested = errors.New("arbitration has not been requested")
	ErrArbitrationPending      = errors.New("arbitration is already pending")
	ErrInsufficientFee         = errors.New("fee is below the arbitrator's fee")
)

// Set of error variables for settlement.
var (
	ErrHistoryMismatch         = errors.New("history does not match the chain")
	ErrPartialClaimAlreadyOpen = errors.New("history does not continue the open partial claim")
	ErrInvalidReplay           = errors.New("invalid replay")
	ErrNothingToWithdraw       = balance.ErrNothingToWithdraw
	ErrOverflow                = balance.ErrOverflow
)
