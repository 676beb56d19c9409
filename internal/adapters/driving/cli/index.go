package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

var errIndexNotConfigured = errors.New("index service not configured")

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the PubMed evidence index",
	Long: `Fetch PubMed abstracts and build the evidence index used for explanations.

A typical first run:
  reinfect index fetch
  reinfect index build`,
}

var indexFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download abstracts from PubMed",
	Long: `Search PubMed for each topic and store the matching abstracts.

Without --topic the default reinfection, vaccine effectiveness, recovery
and long COVID queries are used.`,
	RunE: runIndexFetch,
}

var indexImportCmd = &cobra.Command{
	Use:   "import <abstracts.csv>",
	Short: "Import abstracts from a CSV file",
	Long:  `Import abstracts from a CSV file with pmid and abstract columns.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexImport,
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Chunk and embed stored abstracts",
	Long: `Split every stored abstract into overlapping chunks, embed them and
replace the previous index. Requires an embedding provider.`,
	RunE: runIndexBuild,
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show evidence index statistics",
	RunE:  runIndexStatus,
}

func init() {
	indexFetchCmd.Flags().StringSlice("topic", nil, "PubMed query (repeatable)")
	indexFetchCmd.Flags().Int("max", 0, "maximum abstracts per topic (default from settings)")

	indexCmd.AddCommand(indexFetchCmd)
	indexCmd.AddCommand(indexImportCmd)
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexStatusCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexFetch(cmd *cobra.Command, _ []string) error {
	if err := requireServices(cmd.Context()); err != nil {
		return err
	}
	if indexService == nil {
		return errIndexNotConfigured
	}

	topics, _ := cmd.Flags().GetStringSlice("topic")
	if len(topics) == 0 {
		topics = domain.DefaultTopics()
	}
	limit, _ := cmd.Flags().GetInt("max")
	if limit <= 0 {
		limit = maxPerTopic
	}

	cmd.Printf("Fetching up to %d abstracts for %d topics...\n", limit, len(topics))
	n, err := indexService.Fetch(cmd.Context(), topics, limit)
	if n > 0 {
		cmd.Printf("Stored %d abstracts.\n", n)
	}
	if err != nil {
		return err
	}
	cmd.Println("Run 'reinfect index build' to embed them.")
	return nil
}

func runIndexImport(cmd *cobra.Command, args []string) error {
	if err := requireServices(cmd.Context()); err != nil {
		return err
	}
	if indexService == nil {
		return errIndexNotConfigured
	}

	n, err := indexService.ImportCSV(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	cmd.Printf("Imported %d abstracts from %s.\n", n, args[0])
	return nil
}

func runIndexBuild(cmd *cobra.Command, _ []string) error {
	if err := requireServices(cmd.Context()); err != nil {
		return err
	}
	if indexService == nil {
		return errIndexNotConfigured
	}

	cmd.Println("Building evidence index...")
	stats, err := indexService.Build(cmd.Context())
	if err != nil {
		return err
	}
	printIndexStats(cmd, stats)
	return nil
}

func runIndexStatus(cmd *cobra.Command, _ []string) error {
	if err := requireServices(cmd.Context()); err != nil {
		return err
	}
	if indexService == nil {
		return errIndexNotConfigured
	}

	stats, err := indexService.Stats(cmd.Context())
	if err != nil {
		return err
	}
	printIndexStats(cmd, stats)
	if !stats.Ready() {
		cmd.Println("The index is not ready. Run 'reinfect index fetch' and 'reinfect index build'.")
	}
	return nil
}

func printIndexStats(cmd *cobra.Command, stats domain.IndexStats) {
	cmd.Printf("Abstracts: %d\n", stats.Abstracts)
	cmd.Printf("Chunks:    %d\n", stats.Chunks)
	cmd.Printf("Embedded:  %d\n", stats.Embedded)
	if !stats.BuiltAt.IsZero() {
		cmd.Printf("Built at:  %s\n", stats.BuiltAt.Local().Format(time.DateTime))
	}
}
