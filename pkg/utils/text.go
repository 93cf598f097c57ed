package utils

import (
	"strings"
	"unicode"

	"github.com/aryann/difflib"
)

// TokenizeWords splits s into runs of whitespace, word characters and punctuation.
func TokenizeWords(s string) []string {
	var out []string
	var cur []rune
	kind := -1 // 0=space,1=word,2=punct
	for _, r := range s {
		k := 2
		switch {
		case unicode.IsSpace(r):
			k = 0
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-' || r == '\'':
			k = 1
		}
		if k != kind && len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
		kind = k
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

type DeltaOp int

const (
	Removed DeltaOp = -1
	Common  DeltaOp = 0
	Added   DeltaOp = 1
)

type WordDelta struct {
	Op   DeltaOp
	Text string
}

// DiffWords returns a word-level diff of a against b.
func DiffWords(a, b string) []WordDelta {
	recs := difflib.Diff(TokenizeWords(a), TokenizeWords(b))
	out := make([]WordDelta, 0, len(recs))
	for _, r := range recs {
		switch r.Delta {
		case difflib.Common:
			out = append(out, WordDelta{Op: Common, Text: r.Payload})
		case difflib.LeftOnly:
			out = append(out, WordDelta{Op: Removed, Text: r.Payload})
		case difflib.RightOnly:
			out = append(out, WordDelta{Op: Added, Text: r.Payload})
		}
	}
	return out
}

// ChangedText joins the non-blank removed or added words of a diff.
func ChangedText(deltas []WordDelta, op DeltaOp) string {
	var words []string
	for _, d := range deltas {
		if d.Op == op && strings.TrimSpace(d.Text) != "" {
			words = append(words, d.Text)
		}
	}
	return strings.Join(words, " ")
}
