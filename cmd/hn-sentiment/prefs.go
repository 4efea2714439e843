package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"hn-sentiment/storage"
	"hn-sentiment/thread"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs [key=value...]",
	Short: "Show or change display preferences",
	Long: `Show or change display preferences.

Keys:
  model            model used by analyze when --model is not given
  show_summary     true|false
  show_keywords    true|false
  show_sentiment   true|false
  sort             default|time-asc|time-desc|intensity-asc|intensity-desc

Examples:
  hn-sentiment prefs
  hn-sentiment prefs sort=intensity-desc show_keywords=false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		prefs, err := store.LoadPreferences(cfg.Model)
		if err != nil {
			return err
		}

		if len(args) > 0 {
			for _, arg := range args {
				key, value, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("invalid preference %q: expected key=value", arg)
				}
				if err := applyPreference(&prefs, strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
					return err
				}
			}
			if err := store.SavePreferences(prefs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Preferences saved\n", color.GreenString("✓"))
		}

		printPreferences(cmd.OutOrStdout(), prefs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(prefsCmd)
}

func applyPreference(p *storage.Preferences, key, value string) error {
	switch key {
	case "model":
		if value == "" {
			return fmt.Errorf("model must not be empty")
		}
		p.Model = value
	case "show_summary", "show_keywords", "show_sentiment":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value %q for %s: must be true or false", value, key)
		}
		switch key {
		case "show_summary":
			p.ShowSummary = b
		case "show_keywords":
			p.ShowKeywords = b
		default:
			p.ShowSentiment = b
		}
	case "sort":
		mode, err := thread.ParseSortMode(value)
		if err != nil {
			return err
		}
		p.SortMode = mode
	default:
		return fmt.Errorf("unknown preference %q", key)
	}
	return nil
}

func printPreferences(w io.Writer, p storage.Preferences) {
	fmt.Fprintf(w, "model:          %s\n", p.Model)
	fmt.Fprintf(w, "show_summary:   %t\n", p.ShowSummary)
	fmt.Fprintf(w, "show_keywords:  %t\n", p.ShowKeywords)
	fmt.Fprintf(w, "show_sentiment: %t\n", p.ShowSentiment)
	fmt.Fprintf(w, "sort:           %s\n", p.SortMode)
}
