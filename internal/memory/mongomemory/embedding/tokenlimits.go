package embedding

import "strings"

// defaultMaxTokens is the conservative fallback for an unrecognized model.
const defaultMaxTokens = 8192

// providerFamilyDefault applies when the model name carries a known
// provider-family prefix but isn't itself in the table (e.g. a dated
// snapshot of a known model).
const providerFamilyDefault = 2048

var modelTokenLimits = map[string]int{
	"text-embedding-3-small":    8191,
	"text-embedding-3-large":    8191,
	"text-embedding-ada-002":    8191,
	"voyage-3-large":            32000,
	"voyage-3":                  32000,
	"nomic-embed-text":          8192,
	"mxbai-embed-large":         512,
	"all-minilm":                256,
}

// MaxTokensFor resolves the maximum input tokens for a model name, falling
// back to a provider-family-conservative default when unknown.
func MaxTokensFor(model string) int {
	if limit, ok := modelTokenLimits[model]; ok {
		return limit
	}
	for prefix := range knownFamilyPrefixes {
		if strings.HasPrefix(model, prefix) {
			return providerFamilyDefault
		}
	}
	return defaultMaxTokens
}

var knownFamilyPrefixes = map[string]bool{
	"mxbai-":  true,
	"all-":    true,
}
