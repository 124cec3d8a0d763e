package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/zoobzio/poolz"
)

var (
	runMin      int
	runMax      int
	runQueue    int
	runItems    int
	runDuration time.Duration

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Submit a burst of synthetic work and report pool growth",
		Long:  "Constructs a pool, submits a burst of synthetic items with a fixed per-item cost, and prints active/total worker counts as the pool scales to meet the load.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBurst()
		},
	}
)

func init() {
	runCmd.Flags().IntVar(&runMin, "min", 0, "minimum workers")
	runCmd.Flags().IntVar(&runMax, "max", 8, "maximum workers")
	runCmd.Flags().IntVar(&runQueue, "queue", 64, "bounded queue capacity (0 for unbounded)")
	runCmd.Flags().IntVar(&runItems, "items", 200, "number of synthetic items to submit")
	runCmd.Flags().DurationVar(&runDuration, "cost", 5*time.Millisecond, "simulated per-item work duration")
}

func runBurst() error {
	pool, err := poolz.New[int](runMin, runMax, runQueue, "poolctl-run",
		poolz.WithHandler(func(_ context.Context, item int) error {
			time.Sleep(runDuration + time.Duration(rand.Intn(int(runDuration)))) //nolint:gosec // demo jitter, not security-sensitive
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("construct pool: %w", err)
	}

	if err := pool.Prewarm(runMin); err != nil {
		return fmt.Errorf("prewarm: %w", err)
	}

	stop := make(chan struct{})
	go reportStats(pool, stop)

	ctx := context.Background()
	for i := 0; i < runItems; i++ {
		if err := pool.Submit(ctx, i); err != nil {
			return fmt.Errorf("submit item %d: %w", i, err)
		}
	}

	for pool.Stats().QueueDepth > 0 || pool.ActiveWorkers() > 0 {
		time.Sleep(20 * time.Millisecond)
	}
	close(stop)

	if err := pool.Stop(true); err != nil {
		return fmt.Errorf("stop: %w", err)
	}

	fmt.Println("done")
	return nil
}

func reportStats[T any](pool *poolz.Pool[T], stop <-chan struct{}) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s := pool.Stats()
			fmt.Printf("state=%-14s total=%-3d active=%-3d parked=%-3d queue=%-5d\n",
				s.State, s.Total, s.Active, s.Parked, s.QueueDepth)
		case <-stop:
			return
		}
	}
}
