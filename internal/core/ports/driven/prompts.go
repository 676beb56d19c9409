package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Returns the prompt content and any error encountered.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptExplain explains a patient's risk from literature alone.
	// Placeholders: {{context}} and {{question}}.
	PromptExplain = "explain"

	// PromptExplainIntegrated explains a patient's risk given the classifier label.
	// Placeholders: {{prediction}}, {{context}} and {{question}}.
	PromptExplainIntegrated = "explain_integrated"

	// PromptChat answers a free-form question from retrieved literature.
	// Placeholders: {{context}} and {{question}}.
	PromptChat = "chat"
)

// PromptNames lists every prompt the application loads.
func PromptNames() []string {
	return []string{PromptExplain, PromptExplainIntegrated, PromptChat}
}

// Prompt placeholders substituted by the explanation composer.
const (
	PlaceholderContext    = "{{context}}"
	PlaceholderQuestion   = "{{question}}"
	PlaceholderPrediction = "{{prediction}}"
)

// DefaultPrompts returns the built-in prompt templates keyed by name.
// The explain templates define the output format ParseAssessment reads.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
func DefaultPrompts() map[string]string {
	return map[string]string{
		PromptExplain: `You are a medical assistant explaining COVID-19 reinfection risk using research evidence.

Patient details:
- Age, Gender, Vaccine Type, Doses Received, Preexisting Condition, COVID Strain, Symptoms, Severity, Hospitalization Status, ICU Admission, Ventilator Support, BMI, Smoking Status, last infection date and last dose date are included in the question
- Use the patient's profile to tailor the explanation

Scientific evidence:
{{context}}

TASK:
1. Start with an empathetic statement.
2. State the risk level (Low/Moderate/High).
3. In 3-5 sentences, explain risk factors from evidence matching the patient's profile.
Only use the given scientific evidence.

Format response exactly:
Based on the research, the risk level is **[Risk Level]**.

According to the evidence, [explanation with patient-specific factors].

Question:
{{question}}`,

		PromptExplainIntegrated: `You are a medical assistant explaining COVID-19 reinfection risk using research evidence.
The ML model has predicted: {{prediction}} risk for this patient.

Patient details:
{{question}}
- Use the patient's profile to tailor the explanation

Scientific evidence:
{{context}}

TASK:
1. Start with an empathetic statement.
2. State the risk level (Low/Moderate/High).
3. In 3-5 sentences, explain risk factors from evidence matching the patient's profile.
Only use the given scientific evidence.

Format response exactly:
Based on the research, the risk level is **[Risk Level]**.
ML Prediction: {{prediction}} risk.
According to the evidence, [explanation with patient-specific factors].`,

		PromptChat: `You are a medical assistant answering questions about COVID-19 using scientific research evidence.

Answer the user's question based ONLY on the scientific evidence provided below.
Be concise and accurate in your response.
If the evidence doesn't contain information to answer the question, admit that you don't know.

Scientific evidence:
{{context}}

Question:
{{question}}`,
	}
}
