// Package poolz provides a self-tuning worker pool: a goroutine pool whose
// active-worker count adapts to offered load, with coordinated growth,
// throttling, parking/unparking, and graceful termination.
//
// The design is built from six cooperating pieces: an atomically packed
// census of worker counts (total / active / die-slots), a gated blocker
// that parks surplus workers without destroying them, a throughput tracker
// that suggests growth or shrinkage, a per-worker state machine, a periodic
// manager that applies the tracker's suggestions and handles backpressure,
// and a lifecycle that governs startup, prewarming, and shutdown.
//
// Basic usage:
//
//	p, err := poolz.New[Job](0, 8, 256, "jobs",
//	    poolz.WithHandler(func(ctx context.Context, j Job) error {
//	        return j.Run(ctx)
//	    }),
//	)
//	if err != nil {
//	    return err
//	}
//	defer p.Stop(true) //nolint:errcheck
//
//	if err := p.Submit(ctx, job); err != nil {
//	    return err
//	}
//
// Observability follows the same conventions as the rest of the zoobzio
// concurrency stack: metrics via metricz, spans via tracez, typed events
// via hookz, and structured signals via capitan.
package poolz
