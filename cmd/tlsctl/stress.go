package main

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/joshuapare/pagetls/pkg/pagetls"
)

var (
	stressWorkers    int
	stressIterations int
	stressSize       int
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVarP(&stressWorkers, "workers", "w", 8, "Number of concurrent worker goroutines")
	cmd.Flags().IntVarP(&stressIterations, "iterations", "n", 100, "Lifecycle cycles per worker")
	cmd.Flags().IntVar(&stressSize, "size", 8192, "Region size in bytes")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run concurrent region lifecycles and check for leaks",
		Long: `The stress command runs many goroutines that each repeatedly create a
region, fill it, read it back, let a clone overwrite its own copy, and destroy
it. When all workers finish it checks that no pages are left mapped and that
every remaining page is protected.

Example:
  tlsctl stress
  tlsctl stress --workers 32 --iterations 1000 --size 65536
  tlsctl stress --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
	return cmd
}

// StressResult summarises a stress run.
type StressResult struct {
	Workers    int           `json:"workers"`
	Iterations int           `json:"iterations"`
	Size       int           `json:"size"`
	Cycles     int           `json:"cycles"`
	Elapsed    string        `json:"elapsed"`
	Leaked     int64         `json:"leaked_pages"`
	Errors     []string      `json:"errors,omitempty"`
	Stats      pagetls.Stats `json:"stats"`
}

func runStress() error {
	if stressWorkers <= 0 || stressIterations <= 0 {
		return fmt.Errorf("workers and iterations must be positive")
	}

	e, done := newEngine()
	defer done()

	printVerbose("Starting %d workers x %d iterations (%d bytes)\n", stressWorkers, stressIterations, stressSize)
	res, err := stress(e, stressWorkers, stressIterations, stressSize)

	if jsonOut {
		if jerr := printJSON(res); jerr != nil {
			return jerr
		}
		return err
	}

	printInfo("Stress run: %d workers x %d iterations, %d bytes\n", res.Workers, res.Iterations, res.Size)
	printInfo("  Cycles:        %d\n", res.Cycles)
	printInfo("  Elapsed:       %s\n", res.Elapsed)
	printInfo("  Leaked pages:  %d\n", res.Leaked)
	for _, msg := range res.Errors {
		printInfo("  ✗ %s\n", msg)
	}
	if err == nil {
		printInfo("  ✓ no leaks, all pages protected\n")
	}
	printStats(res.Stats)
	return err
}

// stress runs the workers to completion and returns the combined result.
// The error is non-nil if any cycle failed or pages were leaked.
func stress(e *pagetls.Engine, workers, iterations, size int) (StressResult, error) {
	res := StressResult{Workers: workers, Iterations: iterations, Size: size}

	var (
		mu   sync.Mutex
		errs error
		wg   sync.WaitGroup
	)
	start := time.Now()
	for w := 0; w < workers; w++ {
		w := w
		wg.Add(1)
		e.Go(func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				if err := cycle(e, size, byte(w+i)); err != nil {
					mu.Lock()
					errs = multierr.Append(errs, fmt.Errorf("worker %d iteration %d: %w", w, i, err))
					mu.Unlock()
					return
				}
				mu.Lock()
				res.Cycles++
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	res.Elapsed = time.Since(start).Round(time.Millisecond).String()

	res.Stats = e.Stats()
	res.Leaked = res.Stats.LivePages
	if res.Leaked != 0 {
		errs = multierr.Append(errs, fmt.Errorf("%d pages still mapped after all regions were destroyed", res.Leaked))
	}
	errs = multierr.Append(errs, e.Verify())

	for _, err := range multierr.Errors(errs) {
		res.Errors = append(res.Errors, err.Error())
	}
	return res, errs
}

// cycle runs one full lifecycle on the calling goroutine: create, fill,
// clone on a second goroutine that overwrites its copy, check the original
// is untouched, destroy.
func cycle(e *pagetls.Engine, size int, fill byte) error {
	if err := e.Create(size); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer func() { _ = e.Destroy() }()

	want := bytes.Repeat([]byte{fill}, size)
	if err := e.Write(0, want); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	owner := pagetls.Self()
	cloneErr := make(chan error, 1)
	e.Go(func() {
		cloneErr <- cloneAndScribble(e, owner, size, fill)
	})
	if err := <-cloneErr; err != nil {
		return err
	}

	got := make([]byte, size)
	if err := e.Read(0, got); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("region changed after clone wrote to its copy")
	}
	return nil
}

func cloneAndScribble(e *pagetls.Engine, owner pagetls.ThreadID, size int, fill byte) error {
	if err := e.Clone(owner); err != nil {
		return fmt.Errorf("clone: %w", err)
	}
	defer func() { _ = e.Destroy() }()

	var b [1]byte
	if err := e.Read(size-1, b[:]); err != nil {
		return fmt.Errorf("clone read: %w", err)
	}
	if b[0] != fill {
		return fmt.Errorf("clone read %#x, want %#x", b[0], fill)
	}
	if err := e.Write(0, []byte{^fill}); err != nil {
		return fmt.Errorf("clone write: %w", err)
	}
	return nil
}
