package batch

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/devraulu/linkscrub/pkg/cleaner"
	"github.com/devraulu/linkscrub/pkg/process"
	"github.com/devraulu/linkscrub/pkg/storage"
)

type Stats struct {
	StartTime time.Time
	EndTime   time.Time
	Processed int
	Errored   int
}

// Elapsed is the duration of the run, or the time since it started while it
// is still going.
func (s *Stats) Elapsed() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

func (s *Stats) PerSecond() float64 {
	elapsed := s.Elapsed().Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(s.Processed) / elapsed
}

type Result struct {
	Input string
	URL   *url.URL
	Err   error
}

// Runner cleans many URLs concurrently with one shared Cleaner. Concurrent
// calls to Run are allowed; each keeps its own counters and Stats reports the
// run that finished last.
type Runner struct {
	cleaner *cleaner.Cleaner
	store   storage.Storage
	workers int

	mu    sync.Mutex
	stats Stats
}

type job struct {
	index int
	input string
}

type indexedResult struct {
	index int
	Result
}

// New returns a Runner. store may be nil.
func New(c *cleaner.Cleaner, store storage.Storage, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		cleaner: c,
		store:   store,
		workers: workers,
	}
}

// Run cleans inputs and returns one Result per input, in input order. A
// failing URL never stops the batch. Inputs not dispatched before ctx is
// done carry ctx.Err().
func (r *Runner) Run(ctx context.Context, inputs []string) []Result {
	stats := Stats{StartTime: time.Now()}

	jobs := make(chan job, r.workers)
	results := make(chan indexedResult, r.workers)
	finished := make(chan struct{})

	for i := 0; i < r.workers; i++ {
		go r.worker(ctx, i, jobs, results, finished)
	}

	go func() {
		defer close(jobs)
		for i, in := range inputs {
			select {
			case jobs <- job{index: i, input: in}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		for i := 0; i < r.workers; i++ {
			<-finished
		}
		close(results)
	}()

	out := make([]Result, len(inputs))
	done := make([]bool, len(inputs))
	for res := range results {
		out[res.index] = res.Result
		done[res.index] = true
		r.processResult(ctx, &stats, res.Result)
	}

	for i, ok := range done {
		if !ok {
			out[i] = Result{Input: inputs[i], Err: ctx.Err()}
		}
	}

	stats.EndTime = time.Now()
	r.mu.Lock()
	r.stats = stats
	r.mu.Unlock()

	slog.Info("batch complete",
		slog.Int("inputs", len(inputs)),
		slog.Int("processed", stats.Processed),
		slog.Int("errored", stats.Errored),
		slog.Duration("elapsed", stats.Elapsed()),
		slog.Float64("urls_per_sec", stats.PerSecond()),
	)
	return out
}

// Stats returns the counters of the last completed run.
func (r *Runner) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Runner) worker(ctx context.Context, id int, jobs <-chan job, results chan<- indexedResult, finished chan<- struct{}) {
	defer func() { finished <- struct{}{} }()

	slog.Debug("worker started", "id", id)
	for j := range jobs {
		slog.Debug("worker received job", slog.Int("id", id), slog.String("url", j.input))
		u, err := r.cleaner.Clean(ctx, j.input)
		results <- indexedResult{
			index:  j.index,
			Result: Result{Input: j.input, URL: u, Err: err},
		}
	}
}

func (r *Runner) processResult(ctx context.Context, stats *Stats, res Result) {
	if res.Err != nil {
		stats.Errored++
		slog.Warn("clean failed", slog.String("url", res.Input), slog.Any("err", res.Err))
		return
	}

	stats.Processed++
	if r.store == nil {
		return
	}

	cleaned := res.URL.String()
	key, err := process.DedupeKey(cleaned)
	if err != nil {
		key = cleaned
	}

	err = r.store.SaveLink(ctx, storage.Link{
		RawURL:        res.Input,
		CleanedURL:    cleaned,
		NormalizedURL: key,
		Timestamp:     time.Now(),
	})
	if err != nil {
		slog.Error("failed to save link", slog.String("url", cleaned), slog.Any("err", err))
	}
}
