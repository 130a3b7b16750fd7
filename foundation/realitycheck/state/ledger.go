package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// BalanceOf returns the amount owed to the account by settlement and
// arbitration fees.
func (s *State) BalanceOf(account common.Address) uint64 {
	return s.ledger.BalanceOf(account)
}

// Withdraw pays out everything owed to the account.
func (s *State) Withdraw(account common.Address) (uint64, error) {
	value, err := s.ledger.Withdraw(account)
	if err != nil {
		return 0, fmt.Errorf("account[%s]: %w", account, err)
	}

	s.evHandler("state: Withdraw: account[%s] value[%d]", account, value)

	return value, nil
}

// Balances returns a copy of every balance owed by the oracle.
func (s *State) Balances() map[common.Address]uint64 {
	return s.ledger.Copy()
}
