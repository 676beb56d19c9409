package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/reinfect/internal/adapters/driving/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API serving predictions, explanations and chat.

Endpoints:
  GET  /               service banner
  GET  /health         readiness and index size
  POST /predict        assess a single-element array of patient records
  POST /predict/batch  label an array of patient records
  POST /explain        explain one patient record from the literature
  POST /chat           answer {"question": "..."}
  GET  /history        recent questions and answers (?limit=20)

The listen address and CORS origins come from settings; --addr overrides
the address. The evidence index must be built first ('reinfect index build').`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from settings, :8000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := requireServices(cmd.Context()); err != nil {
		return err
	}
	if err := requireIndex(); err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = serverSettings.Addr
	}

	server := httpapi.NewServer(&httpapi.Ports{
		Assessment:     assessmentService,
		Prediction:     predictionService,
		Explanation:    explanationService,
		History:        historyService,
		Index:          indexService,
		LLMModel:       llmModel,
		EmbeddingModel: embeddingModel,
	}, httpapi.Config{
		Addr:        addr,
		CORSOrigins: serverSettings.CORSOrigins,
	})

	cmd.Printf("HTTP API listening on %s\n", addr)
	return server.Run(cmd.Context())
}
