package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Manage posts re-analysed by serve",
}

var watchAddCmd = &cobra.Command{
	Use:   "add <post>",
	Short: "Watch a post",
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

		if err := store.AddWatch(postID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Watching post %d (refresh at %s %s)\n",
			color.GreenString("✓"), postID, cfg.RefreshTime, cfg.Timezone)
		return nil
	},
}

var watchRemoveCmd = &cobra.Command{
	Use:     "rm <post>",
	Aliases: []string{"remove"},
	Short:   "Stop watching a post",
	Args:    cobra.ExactArgs(1),
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

		removed, err := store.RemoveWatch(postID)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("post %d is not watched", postID)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Stopped watching post %d\n", color.GreenString("✓"), postID)
		return nil
	},
}

var watchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List watched posts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		watches, err := store.ListWatches()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(watches) == 0 {
			fmt.Fprintln(out, "No watched posts.")
			return nil
		}
		cyan := color.New(color.FgCyan).SprintFunc()
		for _, w := range watches {
			last := "never"
			if w.LastRunAt > 0 {
				last = time.Unix(w.LastRunAt, 0).UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(out, "%s  added %s  last run %s\n",
				cyan(fmt.Sprintf("%-10d", w.PostID)),
				time.Unix(w.AddedAt, 0).UTC().Format(time.RFC3339),
				last,
			)
		}
		return nil
	},
}

func init() {
	watchCmd.AddCommand(watchAddCmd, watchRemoveCmd, watchListCmd)
	rootCmd.AddCommand(watchCmd)
}
