// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package parexec_test

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/petenewcomb/parexec-go"
	"github.com/stretchr/testify/require"
)

func TestCounterConcurrentIncrements(t *testing.T) {
	for _, threads := range []int{1, 8, 64} {
		for _, increments := range []int{1, 1000} {
			t.Run(fmt.Sprintf("%dx%d", threads, increments), func(t *testing.T) {
				chk := require.New(t)
				counter := parexec.NewCounter(0)

				var wg sync.WaitGroup
				wg.Add(threads)
				for range threads {
					// Each goroutine gets its own copy of the handle.
					go func(c parexec.Counter) {
						defer wg.Done()
						for range increments {
							if err := c.Increment(); err != nil {
								panic(err)
							}
						}
					}(counter)
				}
				wg.Wait()

				value, err := counter.Get()
				chk.NoError(err)
				chk.Equal(int64(threads*increments), value)
			})
		}
	}
}

func TestCounterInitialValueAndAdd(t *testing.T) {
	chk := require.New(t)
	c := parexec.NewCounter(41)
	chk.NoError(c.Increment())
	chk.NoError(c.Add(-2))
	value, err := c.Get()
	chk.NoError(err)
	chk.Equal(int64(40), value)
}

func TestLedgerSequential(t *testing.T) {
	chk := require.New(t)
	l := parexec.NewLedger(50)
	chk.NoError(l.Deposit(25))

	ok, err := l.Withdraw(80)
	chk.NoError(err)
	chk.False(ok)

	ok, err = l.Withdraw(75)
	chk.NoError(err)
	chk.True(ok)

	balance, err := l.Balance()
	chk.NoError(err)
	chk.Equal(int64(0), balance)
}

func TestLedgerRejectsNegativeAmounts(t *testing.T) {
	chk := require.New(t)
	l := parexec.NewLedger(10)
	chk.ErrorIs(l.Deposit(-1), parexec.ErrInvalidArgument)
	ok, err := l.Withdraw(-1)
	chk.ErrorIs(err, parexec.ErrInvalidArgument)
	chk.False(ok)
	balance, err := l.Balance()
	chk.NoError(err)
	chk.Equal(int64(10), balance)
}

func TestLedgerRejectsOverflowingDeposit(t *testing.T) {
	chk := require.New(t)
	l := parexec.NewLedger(math.MaxInt64 - 5)
	chk.NoError(l.Deposit(5))
	chk.ErrorIs(l.Deposit(1), parexec.ErrInvalidArgument)
	chk.ErrorIs(l.Deposit(math.MaxInt64), parexec.ErrInvalidArgument)
	balance, err := l.Balance()
	chk.NoError(err)
	chk.Equal(int64(math.MaxInt64), balance)

	ok, err := l.Withdraw(math.MaxInt64)
	chk.NoError(err)
	chk.True(ok)
	chk.NoError(l.Deposit(math.MaxInt64))
}

func TestLedgerConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	chk := require.New(t)
	for range 500 {
		l := parexec.NewLedger(100)
		var successes atomic.Int32
		start := make(chan struct{})

		var wg sync.WaitGroup
		wg.Add(2)
		for range 2 {
			go func() {
				defer wg.Done()
				<-start
				ok, err := l.Withdraw(60)
				if err != nil {
					panic(err)
				}
				if ok {
					successes.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		chk.Equal(int32(1), successes.Load())
		balance, err := l.Balance()
		chk.NoError(err)
		chk.Equal(int64(40), balance)
	}
}

func TestLedgerConcurrentDepositsAndWithdrawals(t *testing.T) {
	chk := require.New(t)
	l := parexec.NewLedger(0)
	const goroutines = 16
	const rounds = 500

	var withdrawn atomic.Int64
	var wg sync.WaitGroup
	wg.Add(2 * goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range rounds {
				if err := l.Deposit(3); err != nil {
					panic(err)
				}
			}
		}()
		go func() {
			defer wg.Done()
			for range rounds {
				ok, err := l.Withdraw(2)
				if err != nil {
					panic(err)
				}
				if ok {
					withdrawn.Add(2)
				}
			}
		}()
	}
	wg.Wait()

	balance, err := l.Balance()
	chk.NoError(err)
	chk.GreaterOrEqual(balance, int64(0))
	chk.Equal(int64(3*goroutines*rounds), balance+withdrawn.Load())
}

func TestSharedCellPoisonedByPanic(t *testing.T) {
	chk := require.New(t)
	cell := parexec.NewSharedCell(1)
	chk.False(cell.Poisoned())

	chk.PanicsWithValue("boom", func() {
		_ = cell.Update(func(v *int) {
			*v = 2
			panic("boom")
		})
	})
	chk.True(cell.Poisoned())

	_, err := cell.Load()
	chk.ErrorIs(err, parexec.ErrLockPoisoned)
	chk.ErrorIs(cell.Update(func(v *int) { *v = 3 }), parexec.ErrLockPoisoned)
}

func TestSharedCellUpdate(t *testing.T) {
	chk := require.New(t)
	cell := parexec.NewSharedCell([]string{"a"})
	chk.NoError(cell.Update(func(v *[]string) {
		*v = append(*v, "b")
	}))
	value, err := cell.Load()
	chk.NoError(err)
	chk.Equal([]string{"a", "b"}, value)
}
