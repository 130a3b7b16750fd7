// Package balance maintains account balances credited by settlement in memory.
package balance

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// Set of error variables for the ledger.
var (
	ErrNothingToWithdraw = errors.New("nothing to withdraw")
	ErrOverflow          = errors.New("amount overflows the balance")
)

// Credits represents a set of amounts owed to accounts that are applied
// to the sheet together.
type Credits map[common.Address]uint64

// Add owes the specified account the value.
func (c Credits) Add(account common.Address, value uint64) error {
	if value == 0 {
		return nil
	}

	sum, overflow := math.SafeAdd(c[account], value)
	if overflow {
		return fmt.Errorf("account[%s]: %w", account, ErrOverflow)
	}

	c[account] = sum
	return nil
}

// Merge adds all of the other credits into these credits. Nothing is added
// when any of the sums overflows.
func (c Credits) Merge(other Credits) error {
	sums, err := sum(c, other)
	if err != nil {
		return err
	}

	for account, value := range sums {
		c[account] = value
	}
	return nil
}

// sum returns the new value of every account in the credits once added to
// the base amounts.
func sum(base map[common.Address]uint64, credits Credits) (map[common.Address]uint64, error) {
	sums := make(map[common.Address]uint64, len(credits))
	for account, value := range credits {
		if value == 0 {
			continue
		}

		total, overflow := math.SafeAdd(base[account], value)
		if overflow {
			return nil, fmt.Errorf("account[%s]: %w", account, ErrOverflow)
		}
		sums[account] = total
	}
	return sums, nil
}

// =============================================================================

// Sheet represents the data representation to maintain account balances.
type Sheet struct {
	sheet map[common.Address]uint64
	mu    sync.RWMutex
}

// NewSheet constructs a new balance sheet for use, expects a starting
// balance sheet which can be nil.
func NewSheet(sheet map[common.Address]uint64) *Sheet {
	bs := Sheet{
		sheet: make(map[common.Address]uint64),
	}

	if sheet != nil {
		bs.Reset(sheet)
	}

	return &bs
}

// Reset takes the specified sheet and resets the balances.
func (bs *Sheet) Reset(sheet map[common.Address]uint64) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	bs.sheet = make(map[common.Address]uint64)
	for account, value := range sheet {
		bs.sheet[account] = value
	}
}

// Copy makes a copy of the current balance sheet but returns the raw data.
func (bs *Sheet) Copy() map[common.Address]uint64 {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	sheet := make(map[common.Address]uint64, len(bs.sheet))
	for account, value := range bs.sheet {
		sheet[account] = value
	}
	return sheet
}

// BalanceOf returns the amount credited to the account.
func (bs *Sheet) BalanceOf(account common.Address) uint64 {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	return bs.sheet[account]
}

// Credit gives the specified account the specified value.
func (bs *Sheet) Credit(account common.Address, value uint64) error {
	return bs.Apply(Credits{account: value})
}

// Apply credits every account in the set under a single lock so readers
// never observe half of a settlement. No account is credited when any
// balance would overflow.
func (bs *Sheet) Apply(credits Credits) error {
	return bs.ApplyWith(credits, nil)
}

// ApplyWith credits every account in the set once fn succeeds. fn runs under
// the sheet lock after the credits are known to fit, so the caller can tie
// another write to the credits with neither one happening alone.
func (bs *Sheet) ApplyWith(credits Credits, fn func() error) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	sums, err := sum(bs.sheet, credits)
	if err != nil {
		return err
	}

	if fn != nil {
		if err := fn(); err != nil {
			return err
		}
	}

	for account, value := range sums {
		bs.sheet[account] = value
	}
	return nil
}

// Withdraw drains the balance for the account and returns the amount that
// was removed.
func (bs *Sheet) Withdraw(account common.Address) (uint64, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	value := bs.sheet[account]
	if value == 0 {
		return 0, ErrNothingToWithdraw
	}

	delete(bs.sheet, account)
	return value, nil
}
