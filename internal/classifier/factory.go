package classifier

import "go.uber.org/zap"

// Provider names reported by New.
const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// New picks the classifier backend from the configured credentials. Claude
// wins when both keys are set; with neither, an Unconfigured classifier is
// returned and callers fall back to Default.
func New(claude ClaudeConfig, gpt GPTConfig, logger *zap.Logger) (Classifier, string) {
	switch {
	case claude.APIKey != "":
		return NewClaudeClassifier(claude, logger), ProviderClaude
	case gpt.APIKey != "":
		return NewGPTClassifier(gpt, logger), ProviderOpenAI
	default:
		return Unconfigured{}, ProviderNone
	}
}
