package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"hn-sentiment/ranker"
	"hn-sentiment/storage"
	"hn-sentiment/thread"
)

var showCmd = &cobra.Command{
	Use:   "show <post>",
	Short: "Print a stored analysis",
	Long: `Print a stored analysis as a comment tree.

Sort modes: default, time-asc, time-desc, intensity-asc, intensity-desc.
Without --sort the saved preference is used.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		postID, err := parsePostArg(args[0])
		if err != nil {
			return err
		}
		sortFlag, _ := cmd.Flags().GetString("sort")

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		doc, err := store.LoadAnalysis(postID)
		if err != nil {
			return err
		}
		if doc == nil {
			return fmt.Errorf("no analysis stored for post %d", postID)
		}

		prefs, err := store.LoadPreferences(cfg.Model)
		if err != nil {
			return err
		}
		mode := prefs.SortMode
		if sortFlag != "" {
			if mode, err = thread.ParseSortMode(sortFlag); err != nil {
				return err
			}
		}

		renderDocument(cmd.OutOrStdout(), doc, ranker.Compute(doc.Comments), prefs, mode)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored analyses, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		infos, err := store.ListAnalyses()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(infos) == 0 {
			fmt.Fprintln(out, "No analyses stored.")
			return nil
		}
		printAnalyses(out, infos)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <post>",
	Short: "Delete a stored analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		postID, err := parsePostArg(args[0])
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		deleted, err := store.DeleteAnalysis(postID)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("no analysis stored for post %d", postID)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted analysis of post %d\n", color.GreenString("✓"), postID)
		return nil
	},
}

func init() {
	showCmd.Flags().String("sort", "", "sort mode (default from preferences)")
	rootCmd.AddCommand(showCmd, listCmd, deleteCmd)
}

func printAnalyses(w io.Writer, infos []storage.AnalysisInfo) {
	cyan := color.New(color.FgCyan).SprintFunc()
	for _, info := range infos {
		fmt.Fprintf(w, "%s  %s\n", cyan(fmt.Sprintf("%-10d", info.PostID)), info.Title)
		fmt.Fprintf(w, "            %s  %s\n", info.AnalyzedAt, info.Model)
		if info.Question != "" {
			fmt.Fprintf(w, "            %s\n", info.Question)
		}
	}
}
