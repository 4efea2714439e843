package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"hn-sentiment/config"
	"hn-sentiment/digest"
	"hn-sentiment/hn"
	"hn-sentiment/notify"
	"hn-sentiment/scraper"
	"hn-sentiment/storage"
	"hn-sentiment/summarizer"
)

var (
	cfgPath string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "hn-sentiment",
	Short: "Analyse the sentiment of Hacker News discussions",
	Long: `hn-sentiment fetches every comment of a Hacker News post, asks a language
model how each one relates to a sentiment question, and stores the result.

Examples:
  # Analyse a post by ID or URL
  hn-sentiment analyze 42424242
  hn-sentiment analyze "https://news.ycombinator.com/item?id=42424242"

  # Show a stored analysis, most supportive comments first
  hn-sentiment show 42424242 --sort intensity-desc

  # Re-analyse watched posts every day
  hn-sentiment watch add 42424242
  hn-sentiment serve`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded

		level, _ := config.ParseLogLevel(cfg.LogLevel)
		// stdout carries command output.
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		slog.Debug("config loaded", "provider", cfg.Provider, "model", cfg.Model, "db_path", cfg.DBPath)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default "+config.DefaultPath+")")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openStore() (*storage.Store, error) {
	store, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return store, nil
}

// newRunner wires the analysis pipeline for one model.
func newRunner(store *storage.Store, model string, concurrency int) (*digest.Runner, error) {
	httpClient := &http.Client{Timeout: cfg.RequestTimeout()}

	hnClient := hn.NewClient(httpClient,
		hn.WithBaseURL(cfg.HNBaseURL),
		hn.WithRateLimit(cfg.HNRequestsPerSec),
	)

	llm, err := summarizer.NewCompleter(cfg.Provider, summarizer.ProviderConfig{
		APIKey:      cfg.APIKey,
		Model:       model,
		Temperature: cfg.Temperature,
		BaseURL:     cfg.LLMBaseURL,
		HTTPClient:  httpClient,
	})
	if err != nil {
		return nil, err
	}

	var notifier digest.DigestNotifier
	if cfg.NotificationsEnabled() {
		tg, err := notify.NewTelegram(cfg.TelegramToken)
		if err != nil {
			slog.Warn("telegram unavailable, digests disabled", "error", err)
		} else {
			notifier = notify.New(tg, cfg.ChatID)
		}
	}

	return digest.NewRunner(
		hnClient,
		scraper.NewScraper(cfg.RequestTimeout()),
		summarizer.New(llm, cfg.Templates),
		store,
		notifier,
		digest.Config{Model: model, Concurrency: concurrency},
	), nil
}

// parsePostArg accepts a bare ID or an HN item URL.
func parsePostArg(arg string) (int, error) {
	id, ok := hn.ParsePostID(arg)
	if !ok {
		return 0, fmt.Errorf("invalid post %q: expected an ID or a news.ycombinator.com item URL", arg)
	}
	return id, nil
}
