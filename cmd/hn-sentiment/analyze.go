package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"hn-sentiment/analyzer"
	"hn-sentiment/digest"
	"hn-sentiment/hn"
	"hn-sentiment/ranker"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <post>",
	Short: "Analyse every comment of a post",
	Long: `Fetch all comments of a Hacker News post, analyse each one against a
sentiment question and save the result.

The question is generated from the post unless --question is given.
Press Ctrl-C to cancel; a cancelled analysis is not saved.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("question", "", "sentiment question to use instead of generating one")
	analyzeCmd.Flags().String("model", "", "model to use (default from preferences)")
	analyzeCmd.Flags().Int("concurrency", 0, "root threads analysed in parallel, 1-8 (default from config)")
	analyzeCmd.Flags().Bool("no-save", false, "do not store the result")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	postID, err := parsePostArg(args[0])
	if err != nil {
		return err
	}
	question, _ := cmd.Flags().GetString("question")
	model, _ := cmd.Flags().GetString("model")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	noSave, _ := cmd.Flags().GetBool("no-save")

	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}
	if concurrency == 0 {
		concurrency = cfg.Concurrency
	}
	if concurrency < 1 || concurrency > analyzer.DefaultConcurrency {
		return fmt.Errorf("invalid concurrency %d: must be between 1 and %d", concurrency, analyzer.DefaultConcurrency)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	prefs, err := store.LoadPreferences(cfg.Model)
	if err != nil {
		return err
	}
	if model == "" {
		model = prefs.Model
	}

	runner, err := newRunner(store, model, concurrency)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := newProgressLine(os.Stderr)
	doc, err := runner.Run(ctx, postID, digest.RunOptions{
		Question: question,
		NoSave:   noSave,
		OnDiscover: func(p hn.DiscoveryProgress) {
			progress.update("Discovering comments: %d", p.Discovered)
		},
		OnProgress: func(p analyzer.Progress) {
			progress.update("Analysing comments: %d/%d", p.Done, p.Total)
		},
	})
	progress.done()
	if errors.Is(err, analyzer.ErrCanceled) {
		fmt.Fprintln(os.Stderr, color.YellowString("Analysis cancelled, nothing was saved."))
		return err
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	renderDocument(out, doc, ranker.Compute(doc.Comments), prefs, prefs.SortMode)
	if noSave {
		fmt.Fprintln(out, color.YellowString("\nNot saved (--no-save)."))
	} else {
		fmt.Fprintf(out, "\n%s Saved analysis of post %d\n", color.GreenString("✓"), doc.PostID)
	}
	return nil
}
