// Package arbitrator provides an arbitrator that can be named on questions.
// It charges a fee for requests, keeps a queue of the requests it has been
// notified of and submits the answers its owner decides on.
package arbitrator

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/sasha-s/go-deadlock"
)

// Set of error variables for the arbitrator.
var (
	ErrNotOwner  = errors.New("caller is not the owner of the arbitrator")
	ErrFeeTooLow = errors.New("fee is below the arbitrator's fee")
	ErrOverflow  = errors.New("collected fees overflow")
)

// EventHandler defines a function that is called when events
// occur in the arbitrator.
type EventHandler func(v string, args ...any)

// Oracle represents the behavior required from the oracle the arbitrator
// acts on.
type Oracle interface {
	RequestArbitration(questionID common.Hash, fee uint64, requester common.Address) error
	NotifyOfArbitrationRequest(questionID common.Hash, requester common.Address, caller common.Address) error
	SubmitAnswerByArbitrator(questionID common.Hash, answer common.Hash, payee common.Address, caller common.Address) error
	Withdraw(account common.Address) (uint64, error)
}

// Request represents a request for arbitration waiting on an answer.
type Request struct {
	QuestionID common.Hash    `json:"question_id"`
	Requester  common.Address `json:"requester"`
	TimeStamp  uint64         `json:"timestamp"`
}

// =============================================================================

// Config represents the configuration required to start the arbitrator.
type Config struct {
	Address   common.Address
	Owner     common.Address
	Fee       uint64
	Now       func() time.Time
	EvHandler EventHandler
}

// Arbitrator answers the questions it is asked to arbitrate.
type Arbitrator struct {
	address   common.Address
	owner     common.Address
	now       func() time.Time
	evHandler EventHandler

	mu         deadlock.RWMutex
	fee        uint64
	collected  uint64
	customFees map[common.Hash]uint64
	pending    map[common.Hash]Request
}

// New constructs an arbitrator for use.
func New(cfg Config) *Arbitrator {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Arbitrator{
		address:    cfg.Address,
		owner:      cfg.Owner,
		now:        now,
		evHandler:  ev,
		fee:        cfg.Fee,
		customFees: make(map[common.Hash]uint64),
		pending:    make(map[common.Hash]Request),
	}
}

// Address returns the account the arbitrator is known by.
func (a *Arbitrator) Address() common.Address {
	return a.address
}

// GetFee returns the fee required to request arbitration for the question.
func (a *Arbitrator) GetFee(questionID common.Hash) uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if fee, exists := a.customFees[questionID]; exists {
		return fee
	}
	return a.fee
}

// SetFee changes the default fee.
func (a *Arbitrator) SetFee(fee uint64, caller common.Address) error {
	if caller != a.owner {
		return ErrNotOwner
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.fee = fee
	a.evHandler("arbitrator: SetFee: fee[%d]", fee)

	return nil
}

// SetQuestionFee changes the fee for a single question.
func (a *Arbitrator) SetQuestionFee(questionID common.Hash, fee uint64, caller common.Address) error {
	if caller != a.owner {
		return ErrNotOwner
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.customFees[questionID] = fee
	a.evHandler("arbitrator: SetQuestionFee: question[%s] fee[%d]", questionID, fee)

	return nil
}

// NotifyOfArbitrationRequest queues the request. The oracle calls this while
// it accepts the request.
func (a *Arbitrator) NotifyOfArbitrationRequest(questionID common.Hash, requester common.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pending[questionID] = Request{
		QuestionID: questionID,
		Requester:  requester,
		TimeStamp:  uint64(a.now().UTC().Unix()),
	}

	a.evHandler("arbitrator: NotifyOfArbitrationRequest: question[%s] requester[%s]", questionID, requester)

	return nil
}

// Collected returns the fees paid to the arbitrator directly.
func (a *Arbitrator) Collected() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.collected
}

// Pending returns the requests waiting on an answer, oldest first.
func (a *Arbitrator) Pending() []Request {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]Request, 0, len(a.pending))
	for _, req := range a.pending {
		out = append(out, req)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].TimeStamp < out[j].TimeStamp
	})

	return out
}

// =============================================================================

// RequestArbitration pays the fee to the oracle on behalf of the requester.
func (a *Arbitrator) RequestArbitration(oracle Oracle, questionID common.Hash, fee uint64, requester common.Address) error {
	if err := oracle.RequestArbitration(questionID, fee, requester); err != nil {
		return fmt.Errorf("request arbitration: %w", err)
	}

	return nil
}

// AcceptRequest takes the fee for arbitration directly and tells the oracle
// to stop the clock on the question. The fee stays with the arbitrator rather
// than being held by the oracle.
func (a *Arbitrator) AcceptRequest(oracle Oracle, questionID common.Hash, fee uint64, requester common.Address) error {
	if required := a.GetFee(questionID); fee < required {
		return fmt.Errorf("question[%s] fee[%d] required[%d]: %w", questionID, fee, required, ErrFeeTooLow)
	}

	// The fee is held before the oracle is called and given back if the
	// oracle refuses. The oracle takes its own locks so none is held here.
	a.mu.Lock()
	collected, overflow := math.SafeAdd(a.collected, fee)
	if overflow {
		a.mu.Unlock()
		return fmt.Errorf("question[%s] fee[%d]: %w", questionID, fee, ErrOverflow)
	}
	a.collected = collected
	a.mu.Unlock()

	if err := oracle.NotifyOfArbitrationRequest(questionID, requester, a.address); err != nil {
		a.mu.Lock()
		a.collected -= fee
		a.mu.Unlock()

		return fmt.Errorf("accept request: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.pending[questionID] = Request{
		QuestionID: questionID,
		Requester:  requester,
		TimeStamp:  uint64(a.now().UTC().Unix()),
	}

	a.evHandler("arbitrator: AcceptRequest: question[%s] requester[%s] fee[%d]", questionID, requester, fee)

	return nil
}

// SubmitAnswerByArbitrator hands the owner's answer to the oracle, which
// finalizes the question.
func (a *Arbitrator) SubmitAnswerByArbitrator(oracle Oracle, questionID common.Hash, answer common.Hash, payee common.Address, caller common.Address) error {
	if caller != a.owner {
		return ErrNotOwner
	}

	if err := oracle.SubmitAnswerByArbitrator(questionID, answer, payee, a.address); err != nil {
		return fmt.Errorf("submit answer: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.pending, questionID)
	a.evHandler("arbitrator: SubmitAnswerByArbitrator: question[%s] answer[%s] payee[%s]", questionID, answer, payee)

	return nil
}

// Withdraw collects the fees the oracle owes the arbitrator.
func (a *Arbitrator) Withdraw(oracle Oracle, caller common.Address) (uint64, error) {
	if caller != a.owner {
		return 0, ErrNotOwner
	}

	value, err := oracle.Withdraw(a.address)
	if err != nil {
		return 0, fmt.Errorf("withdraw: %w", err)
	}

	a.evHandler("arbitrator: Withdraw: value[%d]", value)

	return value, nil
}
