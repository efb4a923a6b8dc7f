// Package probe issues the same read query in a tight sequential loop and
// prints window averages of heap usage, so growth across windows points at
// memory retained by the client.
package probe

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/exp/slog"
)

// Target is the client under test.
type Target interface {
	// Query runs one read-all query and discards the rows.
	Query(ctx context.Context) error
	// Disconnect releases the client's connections.
	Disconnect(ctx context.Context) error
}

// Options configures a Run. Heap, Out and Logger default to the runtime
// heap, stdout and slog.Default.
type Options struct {
	Iterations int
	Window     int
	Heap       HeapReader
	Out        io.Writer
	Logger     *slog.Logger
	Metrics    *Metrics
}

func (o Options) withDefaults() Options {
	if o.Heap == nil {
		o.Heap = RuntimeHeap{}
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Run warms the target up, issues opts.Iterations queries one after another
// and disconnects the target once they have all succeeded. The first failing
// query aborts the run and its error is returned; the target is then left
// connected.
func Run(ctx context.Context, t Target, opts Options) error {
	if opts.Iterations < 0 {
		return fmt.Errorf("iterations must be >= 0, got %d", opts.Iterations)
	}
	if opts.Window <= 0 {
		return fmt.Errorf("window must be > 0, got %d", opts.Window)
	}
	opts = opts.withDefaults()
	log := opts.Logger

	// loads the lazily built query engine before the baseline reading
	if err := t.Query(ctx); err != nil {
		return fmt.Errorf("warm-up query: %w", err)
	}
	opts.Metrics.query()

	fmt.Fprintf(opts.Out, "Memory usage before: %s MB\n", FormatMB(opts.Heap.HeapBytes()))
	log.Debug("probe started", "iterations", opts.Iterations, "window", opts.Window)

	sampler := NewSampler(opts.Window)
	for i := 0; i < opts.Iterations; i++ {
		if err := t.Query(ctx); err != nil {
			return fmt.Errorf("query %d: %w", i, err)
		}
		opts.Metrics.query()

		heapBytes := opts.Heap.HeapBytes()
		opts.Metrics.sample(heapBytes)

		report, ok := sampler.Add(i, heapBytes)
		if !ok {
			continue
		}
		opts.Metrics.report(report)
		fmt.Fprintln(opts.Out, report)
	}

	fmt.Fprintf(opts.Out, "Memory usage after: %s MB\n", FormatMB(opts.Heap.HeapBytes()))

	if err := t.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	log.Debug("probe finished")
	return nil
}
