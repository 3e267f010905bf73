package explain

import "github.com/abhisek/proofcheck/internal/llm"

// Schema constrains the model's reply to an explanation plus one flaw
// from the taxonomy.
var Schema = &llm.Schema{
	Name:        "proof-explanation",
	Description: "Short explanation of a proof verdict with the suspected flaw",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"explanation": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "One or two sentences explaining why the proof is valid or invalid",
			},
			"suspected_flaw": map[string]any{
				"type":        "string",
				"enum":        flawIDs(),
				"description": "The flaw category that best describes the defect, or none",
			},
		},
		"required":             []string{"explanation", "suspected_flaw"},
		"additionalProperties": false,
	},
}
