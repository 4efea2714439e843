package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"hn-sentiment/storage"
)

var exportCmd = &cobra.Command{
	Use:   "export <post>",
	Short: "Write a stored analysis to a JSON file",
	Long: `Write a stored analysis to a JSON file.

The default file name is hn-<post>-analysis.json; use -o - for stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		postID, err := parsePostArg(args[0])
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = storage.ExportFileName(postID)
		}

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

		if output == "-" {
			return storage.WriteDocument(cmd.OutOrStdout(), doc)
		}

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		if err := storage.WriteDocument(f, doc); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", output, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Exported post %d to %s\n", color.GreenString("✓"), postID, output)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load an exported analysis into the database",
	Long: `Load an exported analysis into the database, replacing any stored
analysis of the same post.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer f.Close()

		doc, err := storage.ReadDocument(f)
		if err != nil {
			return fmt.Errorf("importing %s: %w", args[0], err)
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.SaveAnalysis(doc); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Imported analysis of post %d (%s)\n", color.GreenString("✓"), doc.PostID, doc.Title)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "output file, - for stdout")
	rootCmd.AddCommand(exportCmd, importCmd)
}
