// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package parexec

import (
	"fmt"
	"math"
)

// Ledger is a thread-safe account balance. Like [Counter], copies of a Ledger
// share one underlying balance and the zero value is not usable; create
// ledgers with [NewLedger].
type Ledger struct {
	balance *SharedCell[int64]
}

// NewLedger returns a ledger holding initialBalance.
func NewLedger(initialBalance int64) Ledger {
	return Ledger{balance: NewSharedCell(initialBalance)}
}

// Deposit adds amount to the balance. A negative amount, or one that would
// overflow the balance, is rejected with [ErrInvalidArgument] and leaves the
// balance unchanged.
func (l Ledger) Deposit(amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: negative deposit %d", ErrInvalidArgument, amount)
	}
	var overflow bool
	err := l.balance.Update(func(b *int64) {
		if *b > math.MaxInt64-amount {
			overflow = true
			return
		}
		*b += amount
	})
	if err != nil {
		return err
	}
	if overflow {
		return fmt.Errorf("%w: deposit %d overflows balance", ErrInvalidArgument, amount)
	}
	return nil
}

// Withdraw subtracts amount from the balance and returns true if the balance
// is at least amount. Otherwise it leaves the balance unchanged and returns
// false. The balance check and the subtraction happen in one critical
// section, so concurrent withdrawals can never overdraw the ledger. A
// negative amount is rejected with [ErrInvalidArgument].
func (l Ledger) Withdraw(amount int64) (bool, error) {
	if amount < 0 {
		return false, fmt.Errorf("%w: negative withdrawal %d", ErrInvalidArgument, amount)
	}
	var ok bool
	err := l.balance.Update(func(b *int64) {
		if *b >= amount {
			*b -= amount
			ok = true
		}
	})
	return ok, err
}

// Balance returns the current balance.
func (l Ledger) Balance() (int64, error) {
	return l.balance.Load()
}
