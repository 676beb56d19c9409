package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

var predictCmd = &cobra.Command{
	Use:   "predict <patients.json>",
	Short: "Predict reinfection for one or more patients",
	Long: `Predict COVID-19 reinfection from a JSON file holding one patient record
or an array of records. Use "-" to read from stdin.

A single record gets the full assessment: the prediction, risk factors,
recommendations and a literature-grounded explanation. Several records get
one label each; use --no-explain for labels only.

Example record:
  {"Age": 54, "Gender": "Female", "Severity": "Moderate", "Doses_Received": 2,
   "Date_of_Infection": "2021-03-01", "Smoking_Status": "Non-smoker", ...}`,
	Args: cobra.ExactArgs(1),
	RunE: runPredict,
}

var explainCmd = &cobra.Command{
	Use:   "explain <patient.json>",
	Short: "Explain a patient's reinfection risk from the literature",
	Long: `Explain why a patient may or may not be at risk of reinfection using
evidence retrieved from indexed PubMed abstracts.

With --with-prediction the model's label is included in the explanation.`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

var chatCmd = &cobra.Command{
	Use:   "chat <question>",
	Short: "Ask a question about COVID-19 reinfection",
	Long: `Answer a free-form question from indexed PubMed abstracts. Every question
and answer is appended to the history log.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

func init() {
	predictCmd.Flags().Bool("json", false, "print JSON output")
	predictCmd.Flags().Bool("no-explain", false, "print labels only")
	explainCmd.Flags().Bool("json", false, "print JSON output")
	explainCmd.Flags().Bool("with-prediction", false, "include the model's prediction")
	chatCmd.Flags().Bool("sources", false, "print the PubMed IDs the answer drew on")

	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(chatCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	if err := requireServices(cmd.Context()); err != nil {
		return err
	}
	if predictionService == nil {
		return fmt.Errorf("%w: set the directory with 'reinfect settings artifacts'", domain.ErrArtifactsUnavailable)
	}

	records, err := readPatients(cmd, args[0])
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	noExplain, _ := cmd.Flags().GetBool("no-explain")

	if len(records) == 1 && !noExplain && assessmentService != nil {
		assessment, err := assessmentService.Assess(cmd.Context(), records[0])
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd, assessment)
		}
		printAssessment(cmd, assessment)
		return nil
	}

	labels, err := predictionService.Predict(cmd.Context(), records)
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(cmd, map[string]any{"predictions": labels})
	}
	for i, label := range labels {
		cmd.Printf("%d\t%s\n", i+1, label)
	}
	return nil
}

func runExplain(cmd *cobra.Command, args []string) error {
	if err := requireServices(cmd.Context()); err != nil {
		return err
	}
	if explanationService == nil {
		return domain.ErrLLMUnavailable
	}

	records, err := readPatients(cmd, args[0])
	if err != nil {
		return err
	}
	if len(records) != 1 {
		return fmt.Errorf("%w: expected exactly 1 patient record, got %d", domain.ErrInvalidInput, len(records))
	}
	record := records[0]
	if err := record.Validate(); err != nil {
		return err
	}

	withPrediction, _ := cmd.Flags().GetBool("with-prediction")
	asJSON, _ := cmd.Flags().GetBool("json")

	var exp *domain.Explanation
	if withPrediction && assessmentService != nil {
		exp, err = assessmentService.ExplainIntegrated(cmd.Context(), record)
		if err != nil {
			return err
		}
	} else {
		if withPrediction {
			cmd.PrintErrln("Warning: model artifacts are not available, explaining without a prediction.")
		}
		exp = explanationService.Explain(cmd.Context(), record)
	}

	if asJSON {
		return printJSON(cmd, exp)
	}
	printExplanation(cmd, exp)
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	if err := requireServices(cmd.Context()); err != nil {
		return err
	}
	if explanationService == nil {
		return domain.ErrLLMUnavailable
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return errors.New("question is required")
	}

	exp := explanationService.Chat(cmd.Context(), question)
	cmd.Println(exp.Text)

	if showSources, _ := cmd.Flags().GetBool("sources"); showSources {
		printSources(cmd, exp.Passages)
	}
	return nil
}

// readPatients decodes one record or an array of records, rejecting
// unknown fields.
func readPatients(cmd *cobra.Command, path string) ([]domain.PatientRecord, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read patients: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no patient records in %s", domain.ErrInvalidInput, path)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var records []domain.PatientRecord
	if data[0] == '[' {
		err = dec.Decode(&records)
	} else {
		var record domain.PatientRecord
		err = dec.Decode(&record)
		records = []domain.PatientRecord{record}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrInvalidInput, path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no patient records in %s", domain.ErrInvalidInput, path)
	}
	return records, nil
}

func printAssessment(cmd *cobra.Command, a *domain.Assessment) {
	cmd.Printf("Reinfection prediction: %s\n", a.Prediction)
	if a.Description != "" {
		cmd.Printf("\n%s\n", a.Description)
	}
	if len(a.RiskFactors) > 0 {
		cmd.Println("\nRisk factors:")
		for _, f := range a.RiskFactors {
			cmd.Printf("  - %s\n", f)
		}
	}
	if len(a.Recommendations) > 0 {
		cmd.Println("\nRecommendations:")
		for _, r := range a.Recommendations {
			cmd.Printf("  - %s\n", r)
		}
	}
	if a.Explanation != nil {
		cmd.Println()
		printExplanation(cmd, a.Explanation)
	}
}

func printExplanation(cmd *cobra.Command, exp *domain.Explanation) {
	if exp == nil {
		return
	}
	if exp.Assessment.RiskLevel != "" {
		cmd.Printf("Risk level: %s\n", exp.Assessment.RiskLevel)
	}
	cmd.Println(exp.Text)
	printSources(cmd, exp.Passages)
}

func printSources(cmd *cobra.Command, passages []domain.EvidencePassage) {
	seen := make(map[string]bool, len(passages))
	var ids []string
	for _, p := range passages {
		if p.SourceID == "" || seen[p.SourceID] {
			continue
		}
		seen[p.SourceID] = true
		ids = append(ids, p.SourceID)
	}
	if len(ids) == 0 {
		return
	}
	cmd.Printf("\nSources: PMID %s\n", strings.Join(ids, ", "))
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
