package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
)

var errHistoryNotConfigured = errors.New("history service not configured")

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent questions and answers",
	RunE:  runHistory,
}

var historyImportCmd = &cobra.Command{
	Use:   "import-legacy <history.json>",
	Short: "Import a JSON-array history file",
	Long: `Append entries from a legacy history file holding a JSON array of
{"timestamp", "question", "answer"} objects to the history log.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryImport,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "number of entries to show")
	historyCmd.AddCommand(historyImportCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if err := requireServices(cmd.Context()); err != nil {
		return err
	}
	if historyService == nil {
		return errHistoryNotConfigured
	}

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := historyService.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		cmd.Println("No questions asked yet.")
		return nil
	}

	for i, e := range entries {
		if i > 0 {
			cmd.Println()
		}
		cmd.Printf("[%s] Q: %s\n", e.Timestamp.Local().Format(time.DateTime), e.Question)
		cmd.Printf("A: %s\n", e.Answer)
	}
	return nil
}

func runHistoryImport(cmd *cobra.Command, args []string) error {
	if err := requireServices(cmd.Context()); err != nil {
		return err
	}
	if historyService == nil {
		return errHistoryNotConfigured
	}

	n, err := historyService.ImportLegacy(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	cmd.Printf("Imported %d entries from %s.\n", n, args[0])
	return nil
}
