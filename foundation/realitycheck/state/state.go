// Package state is the core API for the oracle and implements all the
// business rules for answering, arbitrating and settling questions.
package state

import (
	"fmt"
	"time"

	"github.com/alex-kampa/realitycheck/foundation/realitycheck/balance"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/history"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sasha-s/go-deadlock"
)

// DefaultRevealDivisor is used when the configuration doesn't provide one. A
// commitment must be revealed within StepDelay/DefaultRevealDivisor seconds.
const DefaultRevealDivisor = 8

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of questions.
type EventHandler func(v string, args ...any)

// Arbitrator interface represents the behavior required to be implemented by
// any party that can be named as the arbitrator of a question.
type Arbitrator interface {
	Address() common.Address
	GetFee(questionID common.Hash) uint64
	NotifyOfArbitrationRequest(questionID common.Hash, requester common.Address) error
}

// Recorder interface represents the behavior required to be implemented by
// any package keeping the full history of records off to the side. Only the
// chain head is kept here.
type Recorder interface {
	Record(rec history.Record) error
}

// =============================================================================

// Config represents the configuration required to start the engine.
type Config struct {
	Now           func() time.Time
	RevealDivisor uint64
	Ledger        *balance.Sheet
	Recorder      Recorder
	EvHandler     EventHandler
}

// State manages the set of questions and the balances owed to accounts.
type State struct {
	now           func() time.Time
	revealDivisor uint64
	ledger        *balance.Sheet
	recorder      Recorder
	evHandler     EventHandler

	mu          deadlock.RWMutex
	questions   map[common.Hash]*entry
	arbitrators map[common.Address]Arbitrator
}

// entry holds a question and everything needed to settle it. All access to an
// entry is serialized through its mutex.
type entry struct {
	mu          deadlock.Mutex
	question    Question
	commitments map[common.Hash]Commitment
	byBond      map[uint64]common.Hash
	claim       *Claim
}

// New constructs the engine for use.
func New(cfg Config) *State {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	revealDivisor := cfg.RevealDivisor
	if revealDivisor == 0 {
		revealDivisor = DefaultRevealDivisor
	}

	ledger := cfg.Ledger
	if ledger == nil {
		ledger = balance.NewSheet(nil)
	}

	return &State{
		now:           now,
		revealDivisor: revealDivisor,
		ledger:        ledger,
		recorder:      cfg.Recorder,
		evHandler:     ev,
		questions:     make(map[common.Hash]*entry),
		arbitrators:   make(map[common.Address]Arbitrator),
	}
}

// RegisterArbitrator makes the arbitrator available to be named on questions.
func (s *State) RegisterArbitrator(arb Arbitrator) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.arbitrators[arb.Address()] = arb
	s.evHandler("state: RegisterArbitrator: arbitrator[%s]", arb.Address())
}

// =============================================================================

// timestamp returns the current time in seconds.
func (s *State) timestamp() uint64 {
	return uint64(s.now().UTC().Unix())
}

// lookup finds the entry for the question. The caller is responsible for
// locking the entry.
func (s *State) lookup(questionID common.Hash) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.questions[questionID]
	if !exists {
		return nil, fmt.Errorf("question[%s]: %w", questionID, ErrQuestionNotFound)
	}

	return e, nil
}

// arbitrator finds the registered arbitrator by address.
func (s *State) arbitrator(account common.Address) (Arbitrator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	arb, exists := s.arbitrators[account]
	if !exists {
		return nil, fmt.Errorf("arbitrator[%s]: %w", account, ErrUnknownArbitrator)
	}

	return arb, nil
}

// record hands the new record to the recorder before the entry is updated so
// the history kept off to the side never falls behind the chain head.
func (s *State) record(rec history.Record) error {
	if s.recorder == nil {
		return nil
	}

	if err := s.recorder.Record(rec); err != nil {
		return fmt.Errorf("recording history: %w", err)
	}

	return nil
}

// accept appends the record to the chain and restarts the clock.
func (e *entry) accept(rec history.Record, now uint64) {
	e.question.HistoryHash = rec.Hash()
	e.question.Bond = rec.Bond
	e.question.BestAnswer = rec.Answer
	e.question.BestCommitment = history.ZeroHash
	e.question.FinalizeTS = now + e.question.StepDelay
}
