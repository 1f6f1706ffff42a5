// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package parexec_test

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/petenewcomb/parexec-go"
)

func ExampleParallelMap() {
	words := []string{"scatter", "map", "gather", "reorder"}
	lengths, err := parexec.ParallelMap(context.Background(), words, func(w string) int {
		return len(w)
	}, parexec.WithWorkers(3))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(lengths)
	// Output: [7 3 6 7]
}

func ExampleParallelPrimeCheck() {
	results, err := parexec.ParallelPrimeCheck(context.Background(), []uint64{0, 1, 2, 15, 17}, 4)
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, r := range results {
		fmt.Println(r.Number, r.Prime)
	}
	// Output:
	// 0 false
	// 1 false
	// 2 true
	// 15 false
	// 17 true
}

func ExampleRunSquareQueue() {
	results, err := parexec.RunSquareQueue(context.Background(), []int64{1, 2, 3, 4}, 2)
	if err != nil {
		fmt.Println(err)
		return
	}
	// Results arrive in completion order, so sort them for display.
	values := make([]int64, 0, len(results))
	for _, r := range results {
		values = append(values, r.Value)
	}
	slices.Sort(values)
	fmt.Println(values)
	// Output: [1 4 9 16]
}

func ExampleLedger() {
	account := parexec.NewLedger(100)

	var wg sync.WaitGroup
	outcomes := make([]bool, 2)
	for i := range outcomes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i], _ = account.Withdraw(60)
		}()
	}
	wg.Wait()

	balance, _ := account.Balance()
	succeeded := 0
	for _, ok := range outcomes {
		if ok {
			succeeded++
		}
	}
	fmt.Println(succeeded, balance)
	// Output: 1 40
}
