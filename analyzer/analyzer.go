// Package analyzer enriches a discussion tree with per-comment analyses
// using a bounded pool of workers.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"hn-sentiment/thread"
)

// DefaultConcurrency is both the default and the maximum number of
// root threads analysed at once.
const DefaultConcurrency = 8

// ErrCanceled is returned when a run stops before every target was visited.
var ErrCanceled = errors.New("analysis canceled")

var (
	commentsAnalyzed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hnsentiment_comments_analyzed_total",
		Help: "Comments sent for analysis by result",
	}, []string{"result"})

	enrichDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hnsentiment_enrich_duration_seconds",
		Help:    "Latency of a single comment analysis call",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})
)

// EnrichFunc analyses one comment's text in the context of question.
type EnrichFunc func(ctx context.Context, question, text string) (*thread.Analysis, error)

// Progress is reported after every processed target.
type Progress struct {
	Done  int
	Total int
}

// Options controls a single Analyze run.
type Options struct {
	Question string
	// Concurrency is clamped to 1..DefaultConcurrency; zero means the default.
	Concurrency int
	OnProgress  func(Progress)
}

// Result summarises a run. Done counts processed targets, successful or not.
type Result struct {
	Total    int
	Done     int
	Analyzed int
	Failed   int
}

// Analyze visits every target comment in tree and attaches the analysis
// returned by enrich. Root threads are claimed by up to Concurrency
// workers; within a thread comments are analysed one at a time, parent
// before children. Failed calls leave the comment without analysis and
// do not stop the run. Cancelling ctx stops the run with ErrCanceled.
func Analyze(ctx context.Context, tree thread.Tree, enrich EnrichFunc, opts Options) (Result, error) {
	r := &run{
		enrich:     enrich,
		question:   opts.Question,
		onProgress: opts.OnProgress,
		claimed:    make(map[*thread.Comment]bool),
	}
	r.result.Total = tree.CountTargets()

	workers := min(concurrency(opts.Concurrency), len(tree))
	if workers == 0 {
		return r.result, nil
	}

	slog.Info("analysis started", "targets", r.result.Total, "roots", len(tree), "workers", workers)

	var cursor atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				i := int(cursor.Add(1) - 1)
				if i >= len(tree) {
					return nil
				}
				if err := r.walk(gctx, tree[i]); err != nil {
					return err
				}
			}
		})
	}

	err := g.Wait()
	res := r.snapshot()
	// A cancel that lands after the last target finished changes nothing.
	if err != nil && res.Done < res.Total {
		cause := ctx.Err()
		if cause == nil {
			cause = err
		}
		slog.Warn("analysis canceled", "done", res.Done, "total", res.Total)
		return res, fmt.Errorf("%w: %w", ErrCanceled, cause)
	}

	slog.Info("analysis finished", "analyzed", res.Analyzed, "failed", res.Failed, "total", res.Total)
	return res, nil
}

func concurrency(n int) int {
	if n <= 0 || n > DefaultConcurrency {
		return DefaultConcurrency
	}
	return n
}

type run struct {
	enrich     EnrichFunc
	question   string
	onProgress func(Progress)

	mu      sync.Mutex
	claimed map[*thread.Comment]bool
	result  Result
}

// walk processes c and then its subtree. A comment reachable from two
// parents is processed by whichever worker claims it first.
func (r *run) walk(ctx context.Context, c *thread.Comment) error {
	if !r.claim(c) {
		return nil
	}
	if c.IsTarget() {
		if err := r.process(ctx, c); err != nil {
			return err
		}
	}
	for _, child := range c.Children {
		if err := r.walk(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) claim(c *thread.Comment) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claimed[c] {
		return false
	}
	r.claimed[c] = true
	return true
}

func (r *run) process(ctx context.Context, c *thread.Comment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	analysis, err := r.enrich(ctx, r.question, c.Text)
	enrichDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil && (ctx.Err() != nil || errors.Is(err, context.Canceled)):
		commentsAnalyzed.WithLabelValues("canceled").Inc()
		return err
	case err != nil:
		commentsAnalyzed.WithLabelValues("error").Inc()
		slog.Warn("comment analysis failed", "comment_id", c.ID, "error", err)
		r.advance(false)
	case analysis == nil:
		commentsAnalyzed.WithLabelValues("error").Inc()
		slog.Warn("comment analysis returned nothing", "comment_id", c.ID)
		r.advance(false)
	default:
		commentsAnalyzed.WithLabelValues("ok").Inc()
		c.Analysis = analysis
		r.advance(true)
	}
	return nil
}

// advance records one processed target. The callback runs under the lock
// so observers see Done strictly increasing.
func (r *run) advance(ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result.Done++
	if ok {
		r.result.Analyzed++
	} else {
		r.result.Failed++
	}
	if r.onProgress != nil {
		r.onProgress(Progress{Done: r.result.Done, Total: r.result.Total})
	}
}

func (r *run) snapshot() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}
