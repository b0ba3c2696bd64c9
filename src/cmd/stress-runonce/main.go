// Command stress-runonce fires concurrent run-once requests at a resident
// instance and reports how they were answered.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"select-translate/src/singleinstance"
)

type stressOptions struct {
	n         int
	clipboard bool
	deadline  time.Duration
}

type tally struct {
	ok, failed, missing, errs int32
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-runonce",
		Short:         "Stress test run-once delegation",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd.Context(), *opts, singleinstance.NewClient, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 20, "number of clients to launch")
	cmd.Flags().BoolVar(&opts.clipboard, "clipboard", false, "send CLIPBOARD instead of TRANSLATE")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 90*time.Second, "per-client timeout")

	return cmd
}

func runWithOptions(ctx context.Context, opts stressOptions, newClient func() singleinstance.Client, out io.Writer) error {
	if opts.n <= 0 {
		return fmt.Errorf("n must be positive, got %d", opts.n)
	}

	var wg sync.WaitGroup
	var t tally
	start := time.Now()
	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, opts.deadline)
			defer cancel()
			delegated, _, err := newClient().TryRunOnce(cctx, singleinstance.Request{Clipboard: opts.clipboard})
			switch {
			case delegated && err == nil:
				atomic.AddInt32(&t.ok, 1)
			case delegated:
				// The resident answered ERROR.
				atomic.AddInt32(&t.failed, 1)
			case err == nil:
				atomic.AddInt32(&t.missing, 1)
			default:
				atomic.AddInt32(&t.errs, 1)
			}
		}()
	}
	wg.Wait()

	_, err := fmt.Fprintf(out, "launched=%d ok=%d failed=%d no-resident=%d err=%d elapsed=%s\n",
		opts.n, t.ok, t.failed, t.missing, t.errs, time.Since(start).Round(time.Millisecond))
	return err
}
