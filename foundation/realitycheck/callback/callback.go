// Package callback notifies registered clients of final answers. Anyone can
// fund a callback for a question and whoever sends it once the question is
// finalized collects the funding.
package callback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alex-kampa/realitycheck/foundation/realitycheck/balance"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/sasha-s/go-deadlock"
)

// Set of error variables for callbacks.
var (
	ErrNoCallbackRequest = errors.New("no funded callback request")
	ErrRewardTooLow      = errors.New("callback reward is below the minimum")
	ErrUnknownClient     = errors.New("callback client is not registered")
	ErrBudgetTooHigh     = errors.New("callback budget is above the maximum")
	ErrInvalidBudget     = errors.New("callback budget must be greater than zero")
)

// EventHandler defines a function that is called when events
// occur in the dispatcher.
type EventHandler func(v string, args ...any)

// Client interface represents the behavior required to be implemented by
// anything that wants to be told the final answer to a question.
type Client interface {
	Address() common.Address
	ReceiveAnswer(ctx context.Context, questionID common.Hash, answer common.Hash) error
}

// Oracle represents the behavior required from the oracle to look up
// answers.
type Oracle interface {
	IsFinalized(questionID common.Hash) (bool, error)
	GetFinalAnswer(questionID common.Hash) (common.Hash, error)
}

// key identifies a funded request. Funding for different budgets is kept
// apart so a sender can't spend less than what was paid for.
type key struct {
	questionID common.Hash
	client     common.Address
	budget     time.Duration
}

// =============================================================================

// Config represents the configuration required to start the dispatcher.
type Config struct {
	Oracle    Oracle
	Ledger    *balance.Sheet
	MaxBudget time.Duration
	EvHandler EventHandler
}

// Dispatcher keeps the funded callback requests and sends them.
type Dispatcher struct {
	oracle    Oracle
	ledger    *balance.Sheet
	maxBudget time.Duration
	evHandler EventHandler

	mu       deadlock.Mutex
	clients  map[common.Address]Client
	requests map[key]uint64
}

// New constructs a dispatcher for use.
func New(cfg Config) *Dispatcher {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	return &Dispatcher{
		oracle:    cfg.Oracle,
		ledger:    cfg.Ledger,
		maxBudget: cfg.MaxBudget,
		evHandler: ev,
		clients:   make(map[common.Address]Client),
		requests:  make(map[key]uint64),
	}
}

// Register makes the client available to receive callbacks.
func (d *Dispatcher) Register(client Client) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.clients[client.Address()] = client
	d.evHandler("callback: Register: client[%s]", client.Address())
}

// FundCallbackRequest adds to the reward for sending the answer of the
// question to the client within the budget.
func (d *Dispatcher) FundCallbackRequest(questionID common.Hash, client common.Address, budget time.Duration, value uint64) error {
	switch {
	case budget <= 0:
		return fmt.Errorf("budget[%s]: %w", budget, ErrInvalidBudget)
	case d.maxBudget > 0 && budget > d.maxBudget:
		return fmt.Errorf("budget[%s] max[%s]: %w", budget, d.maxBudget, ErrBudgetTooHigh)
	}

	if _, err := d.oracle.IsFinalized(questionID); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	k := key{questionID: questionID, client: client, budget: budget}

	reward, overflow := math.SafeAdd(d.requests[k], value)
	if overflow {
		return fmt.Errorf("question[%s] client[%s] reward[%d]: %w", questionID, client, d.requests[k], balance.ErrOverflow)
	}
	d.requests[k] = reward

	d.evHandler("callback: FundCallbackRequest: question[%s] client[%s] budget[%s] reward[%d]", questionID, client, budget, d.requests[k])

	return nil
}

// Reward returns the funding for the request.
func (d *Dispatcher) Reward(questionID common.Hash, client common.Address, budget time.Duration) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.requests[key{questionID: questionID, client: client, budget: budget}]
}

// SendCallback hands the final answer to the client and credits the funding
// to the caller. A client that fails, panics or runs past its budget does not
// fail the call.
func (d *Dispatcher) SendCallback(ctx context.Context, questionID common.Hash, client common.Address, budget time.Duration, minReward uint64, caller common.Address) error {
	answer, err := d.oracle.GetFinalAnswer(questionID)
	if err != nil {
		return err
	}

	d.mu.Lock()

	k := key{questionID: questionID, client: client, budget: budget}
	reward, exists := d.requests[k]

	switch {
	case !exists:
		d.mu.Unlock()
		return fmt.Errorf("question[%s] client[%s] budget[%s]: %w", questionID, client, budget, ErrNoCallbackRequest)
	case reward < minReward:
		d.mu.Unlock()
		return fmt.Errorf("reward[%d] min[%d]: %w", reward, minReward, ErrRewardTooLow)
	}

	c, exists := d.clients[client]
	if !exists {
		d.mu.Unlock()
		return fmt.Errorf("client[%s]: %w", client, ErrUnknownClient)
	}

	if err := d.ledger.Credit(caller, reward); err != nil {
		d.mu.Unlock()
		return fmt.Errorf("caller[%s]: %w", caller, err)
	}

	delete(d.requests, k)
	d.mu.Unlock()

	if err := d.deliver(ctx, c, questionID, answer, budget); err != nil {
		d.evHandler("callback: SendCallback: question[%s] client[%s]: ERROR: %s", questionID, client, err)
	} else {
		d.evHandler("callback: SendCallback: question[%s] client[%s] answer[%s]", questionID, client, answer)
	}

	d.evHandler("callback: SendCallback: question[%s] caller[%s] reward[%d]", questionID, caller, reward)

	return nil
}

// deliver runs the client under the budget and contains whatever goes wrong.
func (d *Dispatcher) deliver(ctx context.Context, c Client, questionID common.Hash, answer common.Hash, budget time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	done := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("PANIC: %v", r)
			}
		}()

		done <- c.ReceiveAnswer(ctx, questionID, answer)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
