package utils

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var encoding = sync.OnceValues(func() (*tiktoken.Tiktoken, error) {
	return tiktoken.GetEncoding("cl100k_base")
})

// CountTokens estimates the prompt size of text. When the encoding cannot be
// loaded it falls back to a four-bytes-per-token guess.
func CountTokens(text string) int {
	tkm, err := encoding()
	if err != nil {
		return len(text)/4 + 1
	}
	return len(tkm.Encode(text, nil, nil))
}
