package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"hn-sentiment/analyzer"
	"hn-sentiment/hn"
	"hn-sentiment/prompt"
	"hn-sentiment/ranker"
	"hn-sentiment/storage"
	"hn-sentiment/summarizer"
	"hn-sentiment/thread"
)

// ErrPostNotFound is returned when the requested ID is not a story.
var ErrPostNotFound = errors.New("post not found")

var runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hnsentiment_runs_total",
	Help: "Analysis pipeline runs by result",
}, []string{"result"})

// CommentSummarizer produces the LLM-backed parts of an analysis.
type CommentSummarizer interface {
	AnalyzeComment(ctx context.Context, question, commentHTML string) (*thread.Analysis, error)
	GenerateQuestion(ctx context.Context, in summarizer.QuestionInput) (string, error)
	SummarizeThread(ctx context.Context, question string, stats ranker.Stats) (string, error)
}

// ContentScraper extracts readable text from a linked article.
type ContentScraper interface {
	Excerpt(ctx context.Context, rawURL string) (string, error)
}

// Storage persists analyses and watch bookkeeping.
type Storage interface {
	SaveAnalysis(doc *thread.Document) error
	ListWatches() ([]storage.Watch, error)
	MarkWatchRun(postID int, at time.Time) error
}

// DigestNotifier delivers a finished analysis somewhere outside the CLI.
type DigestNotifier interface {
	Notify(doc *thread.Document, stats ranker.Stats) error
}

// Config holds pipeline settings that apply to every run.
type Config struct {
	// Model is recorded in each document; the summarizer already uses it.
	Model       string
	Concurrency int
}

// RunOptions controls a single Run.
type RunOptions struct {
	// Question skips question generation when set.
	Question   string
	NoSave     bool
	OnDiscover func(hn.DiscoveryProgress)
	OnProgress func(analyzer.Progress)
}

// Runner orchestrates the end-to-end analysis of one post.
type Runner struct {
	hn         hn.Client
	scraper    ContentScraper
	summarizer CommentSummarizer
	storage    Storage
	notifier   DigestNotifier
	config     Config

	now   func() time.Time
	newID func() string
}

// NewRunner creates a Runner. scraper and notifier may be nil.
func NewRunner(client hn.Client, scraper ContentScraper, sum CommentSummarizer, store Storage, notifier DigestNotifier, cfg Config) *Runner {
	return &Runner{
		hn:         client,
		scraper:    scraper,
		summarizer: sum,
		storage:    store,
		notifier:   notifier,
		config:     cfg,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Run fetches the post, discovers its comments, analyses every eligible
// comment and builds the resulting document. The document is saved unless
// opts.NoSave is set, then sent to the notifier. Cancelling ctx returns an
// error wrapping analyzer.ErrCanceled and nothing is saved.
func (r *Runner) Run(ctx context.Context, postID int, opts RunOptions) (*thread.Document, error) {
	started := r.now()
	slog.Info("analysis run starting", "post_id", postID, "model", r.config.Model)

	doc, stats, err := r.run(ctx, postID, opts)
	if err != nil {
		runsTotal.WithLabelValues(resultLabel(err)).Inc()
		return nil, err
	}

	if !opts.NoSave {
		if err := r.storage.SaveAnalysis(doc); err != nil {
			runsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("saving analysis: %w", err)
		}
	}

	if r.notifier != nil {
		if err := r.notifier.Notify(doc, stats); err != nil {
			slog.Error("failed to send digest", "post_id", postID, "error", err)
		}
	}

	runsTotal.WithLabelValues("ok").Inc()
	slog.Info("analysis run complete",
		"post_id", postID,
		"run_id", doc.RunID,
		"analyzed", stats.Analyzed,
		"analyzable", stats.Analyzable,
		"net_score", stats.NetScore,
		"duration", r.now().Sub(started).Round(time.Millisecond),
	)
	return doc, nil
}

func (r *Runner) run(ctx context.Context, postID int, opts RunOptions) (*thread.Document, ranker.Stats, error) {
	d := hn.NewDiscoverer(r.hn, opts.OnDiscover)

	post := d.Post(ctx, postID)
	if err := ctx.Err(); err != nil {
		return nil, ranker.Stats{}, fmt.Errorf("%w: %w", analyzer.ErrCanceled, err)
	}
	if post == nil {
		return nil, ranker.Stats{}, fmt.Errorf("%w: %d", ErrPostNotFound, postID)
	}

	disc, err := d.Discover(ctx, postID)
	if err != nil {
		return nil, ranker.Stats{}, fmt.Errorf("%w: %w", analyzer.ErrCanceled, err)
	}

	question := r.question(ctx, post, disc.Comments, opts.Question)
	slog.Info("sentiment question", "post_id", postID, "question", question)

	_, err = analyzer.Analyze(ctx, disc.Comments, r.summarizer.AnalyzeComment, analyzer.Options{
		Question:    question,
		Concurrency: r.config.Concurrency,
		OnProgress:  opts.OnProgress,
	})
	if err != nil {
		return nil, ranker.Stats{}, err
	}

	stats := ranker.Compute(disc.Comments)

	var summary string
	if stats.Analyzed > 0 {
		text, err := r.summarizer.SummarizeThread(ctx, question, stats)
		switch {
		case err == nil:
			summary = text
		case ctx.Err() != nil:
			return nil, ranker.Stats{}, fmt.Errorf("%w: %w", analyzer.ErrCanceled, ctx.Err())
		default:
			slog.Warn("thread summary failed", "post_id", postID, "error", err)
		}
	}

	doc := &thread.Document{
		Version:           thread.SchemaVersion,
		PostID:            postID,
		PostURL:           thread.DiscussionURL(postID),
		Title:             post.Title,
		SentimentQuestion: question,
		Model:             r.config.Model,
		AnalyzedAt:        r.now().UTC().Format(time.RFC3339),
		RunID:             r.newID(),
		ThreadSummary:     summary,
		Post:              hn.ToPost(post),
		Comments:          disc.Comments,
	}
	return doc, stats, nil
}

// question picks the sentiment question: the caller's, else a generated
// one, else the title heuristic.
func (r *Runner) question(ctx context.Context, post *hn.Item, roots thread.Tree, given string) string {
	if q := strings.TrimSpace(given); q != "" {
		return q
	}

	in := summarizer.QuestionInput{
		Title: post.Title,
		Text:  post.Text,
		URL:   post.URL,
	}
	if post.URL != "" && r.scraper != nil {
		excerpt, err := r.scraper.Excerpt(ctx, post.URL)
		if err != nil {
			slog.Warn("article excerpt unavailable", "url", post.URL, "error", err)
		} else {
			in.Excerpt = excerpt
		}
	}
	for _, c := range roots {
		if c.IsTarget() {
			in.TopComments = append(in.TopComments, c.Text)
		}
	}

	q, err := r.summarizer.GenerateQuestion(ctx, in)
	if err != nil {
		slog.Warn("question generation failed, using title", "post_id", post.ID, "error", err)
		return prompt.SentimentQuestion(post.Title)
	}
	return q
}

// RefreshWatches re-runs the pipeline for every watched post. A failing
// post is logged and skipped; cancellation stops the refresh.
func (r *Runner) RefreshWatches(ctx context.Context) error {
	watches, err := r.storage.ListWatches()
	if err != nil {
		return fmt.Errorf("listing watches: %w", err)
	}
	slog.Info("watch refresh starting", "watches", len(watches))

	refreshed := 0
	for _, w := range watches {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", analyzer.ErrCanceled, err)
		}

		if _, err := r.Run(ctx, w.PostID, RunOptions{}); err != nil {
			if errors.Is(err, analyzer.ErrCanceled) {
				return err
			}
			slog.Error("watched post refresh failed", "post_id", w.PostID, "error", err)
			continue
		}

		if err := r.storage.MarkWatchRun(w.PostID, r.now()); err != nil {
			slog.Error("failed to mark watch run", "post_id", w.PostID, "error", err)
		}
		refreshed++
	}

	slog.Info("watch refresh complete", "watches", len(watches), "refreshed", refreshed)
	return nil
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, analyzer.ErrCanceled):
		return "canceled"
	case errors.Is(err, ErrPostNotFound):
		return "not_found"
	}
	return "error"
}
