// Package cli implements the reinfect command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reinfect/internal/app"
	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driving"
	"github.com/custodia-labs/reinfect/internal/logger"
)

// skipAppAnnotation marks commands that never touch configuration.
const skipAppAnnotation = "reinfect/skip-app"

// version is set at build time via -ldflags.
var version = "dev"

var (
	configDir string
	verbose   bool

	application *app.App

	settingsService    driving.SettingsService
	predictionService  driving.PredictionService
	assessmentService  driving.AssessmentService
	explanationService driving.ExplanationService
	retrievalService   driving.RetrievalService
	historyService     driving.HistoryService
	indexService       driving.IndexService

	llmModel       string
	embeddingModel string
	serverSettings domain.ServerSettings
	maxPerTopic    = domain.DefaultMaxPerTopic
	indexErr       error

	servicesReady bool
)

// Services bundles the ports the commands run against. SetServices
// replaces the application-built services, which tests use to inject mocks.
type Services struct {
	Settings    driving.SettingsService
	Prediction  driving.PredictionService
	Assessment  driving.AssessmentService
	Explanation driving.ExplanationService
	Retrieval   driving.RetrievalService
	History     driving.HistoryService
	Index       driving.IndexService

	LLMModel       string
	EmbeddingModel string
	Server         domain.ServerSettings
	MaxPerTopic    int

	// IndexErr is non-nil when the evidence index could not be loaded.
	// The servers refuse to start while it is set.
	IndexErr error
}

// SetServices installs s. A nil s clears every service.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
		servicesReady = false
	} else {
		servicesReady = true
	}
	settingsService = s.Settings
	predictionService = s.Prediction
	assessmentService = s.Assessment
	explanationService = s.Explanation
	retrievalService = s.Retrieval
	historyService = s.History
	indexService = s.Index
	llmModel = s.LLMModel
	embeddingModel = s.EmbeddingModel
	serverSettings = s.Server
	maxPerTopic = s.MaxPerTopic
	indexErr = s.IndexErr
	if maxPerTopic <= 0 {
		maxPerTopic = domain.DefaultMaxPerTopic
	}
}

var rootCmd = &cobra.Command{
	Use:   "reinfect",
	Short: "COVID-19 reinfection risk prediction with literature-grounded explanations",
	Long: `reinfect predicts whether a recovered COVID-19 patient will be reinfected
and explains the risk using evidence retrieved from PubMed abstracts.

Configure providers with 'reinfect settings', build the evidence index with
'reinfect index fetch' and 'reinfect index build', then serve the API with
'reinfect serve' or ask questions with 'reinfect chat' and 'reinfect tui'.`,
	SilenceUsage:      true,
	PersistentPreRunE: initApp,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.reinfect)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command until it returns or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer closeApp()

	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

// initApp loads configuration. Heavy services are started on demand by
// requireServices.
func initApp(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[skipAppAnnotation] == "true" {
		return nil
	}
	if servicesReady || application != nil {
		return nil
	}

	a, err := app.New(configDir)
	if err != nil {
		return err
	}
	application = a
	settingsService = a.Settings
	return nil
}

// requireServices starts the application and publishes its services.
func requireServices(ctx context.Context) error {
	if servicesReady {
		return nil
	}
	if application == nil {
		return errors.New("application not initialised")
	}
	if err := application.Start(ctx); err != nil {
		return err
	}

	s := &Services{
		Settings:    application.Settings,
		Prediction:  application.Predictor,
		Assessment:  application.Assessor,
		Explanation: application.Composer,
		Retrieval:   application.Retriever,
		History:     application.History,
		Index:       application.Indexer,
		IndexErr:    application.RequireIndex(),
	}
	if cur := application.Current; cur != nil {
		s.Server = cur.Server
		s.MaxPerTopic = cur.PubMed.MaxPerTopic
	}
	if ai := application.AI; ai != nil {
		if ai.LLMService != nil {
			s.LLMModel = ai.LLMService.ModelName()
		}
		if ai.EmbeddingService != nil {
			s.EmbeddingModel = ai.EmbeddingService.ModelName()
		}
	}
	SetServices(s)
	return nil
}

// requireIndex fails unless the evidence index is loaded. Commands that
// answer requests over a long-lived server call it after requireServices.
func requireIndex() error {
	if indexErr != nil {
		return fmt.Errorf("cannot serve: %w", indexErr)
	}
	return nil
}

func closeApp() {
	if application != nil {
		application.Close()
		application = nil
	}
}
