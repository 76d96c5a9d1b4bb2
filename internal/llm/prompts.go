package llm

import _ "embed"

var (
	//go:embed prompts/overall.txt
	overallPrompt string
	//go:embed prompts/seasonal.txt
	seasonalPrompt string
)

// Prompt returns the instruction for an analysis kind and whether the kind
// was recognized.
func Prompt(kind string) (string, bool) {
	switch kind {
	case "overall":
		return overallPrompt, true
	case "seasonal":
		return seasonalPrompt, true
	default:
		return "", false
	}
}
