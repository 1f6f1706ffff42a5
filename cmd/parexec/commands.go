// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package main

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/petenewcomb/parexec-go"
	"github.com/spf13/cobra"
)

func parseInts(args []string) ([]int64, error) {
	out := make([]int64, len(args))
	for i, a := range args {
		n, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", parexec.ErrInvalidArgument, a)
		}
		out[i] = n
	}
	return out, nil
}

func parseUints(args []string, bitSize int) ([]uint64, error) {
	out := make([]uint64, len(args))
	for i, a := range args {
		n, err := strconv.ParseUint(a, 10, bitSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a non-negative integer", parexec.ErrInvalidArgument, a)
		}
		out[i] = n
	}
	return out, nil
}

func newSquaresCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "squares N...",
		Short: "Square each number in parallel, preserving input order",
		RunE: func(cmd *cobra.Command, args []string) error {
			numbers, err := parseInts(args)
			if err != nil {
				return err
			}
			squares, err := parexec.ParallelSquares(cmd.Context(), numbers, g.engineOptions()...)
			if err != nil {
				return err
			}
			for i, sq := range squares {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%d\n", numbers[i], sq)
			}
			return nil
		},
	}
}

func newFactorialsCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "factorials N...",
		Short: "Compute the factorial of each number in parallel",
		RunE: func(cmd *cobra.Command, args []string) error {
			wide, err := parseUints(args, 32)
			if err != nil {
				return err
			}
			numbers := make([]uint32, len(wide))
			for i, n := range wide {
				numbers[i] = uint32(n)
			}
			factorials, err := parexec.ParallelFactorials(cmd.Context(), numbers, g.engineOptions()...)
			if err != nil {
				return err
			}
			for i, f := range factorials {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%d\n", numbers[i], f)
			}
			return nil
		},
	}
}

func newPrimesCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "primes N...",
		Short: "Test each number for primality, splitting every divisor search across workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			numbers, err := parseUints(args, 64)
			if err != nil {
				return err
			}
			results, err := parexec.ParallelPrimeCheck(cmd.Context(), numbers, g.explicitWorkers(), g.engineOptions()...)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%t\n", r.Number, r.Prime)
			}
			return nil
		},
	}
}

func newQueueCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "queue N...",
		Short: "Square each number on a worker pool, printing results in completion order",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := parseInts(args)
			if err != nil {
				return err
			}
			results, err := parexec.RunSquareQueue(cmd.Context(), tasks, g.explicitWorkers(), g.engineOptions()...)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "worker %d\t%d\n", r.Worker, r.Value)
			}
			return nil
		},
	}
}

func newCounterCommand(g *globalOptions) *cobra.Command {
	var increments int
	cmd := &cobra.Command{
		Use:   "counter",
		Short: "Increment a shared counter from every worker and print the total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if increments < 0 {
				return fmt.Errorf("%w: --increments must not be negative", parexec.ErrInvalidArgument)
			}
			counter := parexec.NewCounter(0)
			errs := make(chan error, g.explicitWorkers())
			var wg sync.WaitGroup
			for range g.explicitWorkers() {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for range increments {
						if err := counter.Increment(); err != nil {
							errs <- err
							return
						}
					}
				}()
			}
			wg.Wait()
			close(errs)
			if err := <-errs; err != nil {
				return err
			}
			total, err := counter.Get()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), total)
			return nil
		},
	}
	cmd.Flags().IntVarP(&increments, "increments", "n", 1000, "increments per worker")
	return cmd
}

func newLedgerCommand(g *globalOptions) *cobra.Command {
	var initial int64
	cmd := &cobra.Command{
		Use:   "ledger AMOUNT...",
		Short: "Attempt every withdrawal concurrently against one balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			amounts, err := parseInts(args)
			if err != nil {
				return err
			}
			ledger := parexec.NewLedger(initial)
			type outcome struct {
				ok  bool
				err error
			}
			outcomes := make([]outcome, len(amounts))
			var wg sync.WaitGroup
			for i, amount := range amounts {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ok, err := ledger.Withdraw(amount)
					outcomes[i] = outcome{ok: ok, err: err}
				}()
			}
			wg.Wait()

			for i, o := range outcomes {
				if o.err != nil {
					return o.err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "withdraw %d\t%t\n", amounts[i], o.ok)
			}
			balance, err := ledger.Balance()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "balance\t%d\n", balance)
			return nil
		},
	}
	cmd.Flags().Int64Var(&initial, "balance", 100, "initial balance")
	return cmd
}
