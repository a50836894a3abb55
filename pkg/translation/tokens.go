package translation

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// tokenCounter lazily initializes a cl100k_base encoding (the GPT-3.5/4
// family encoding, a reasonable stand-in for provider-agnostic token
// accounting) and falls back to a coarse length/4 estimate if the
// encoding's codec data can't be loaded.
var (
	tokenEncOnce sync.Once
	tokenEnc     *tiktoken.Tiktoken
)

func encoding() *tiktoken.Tiktoken {
	tokenEncOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			tokenEnc = enc
		}
	})
	return tokenEnc
}

// countTokens returns text's token count for progress-event accounting.
// Never fails: an unavailable encoding falls back to an approximation.
func countTokens(text string) int {
	if enc := encoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (len(text) + 3) / 4
}
