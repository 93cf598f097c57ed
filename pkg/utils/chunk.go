package utils

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var paragraphRX = regexp.MustCompile(`\n{2,}`)

// ChunkText splits text into pieces of at most limit runes, preferring
// paragraph breaks, then line breaks, then whitespace.
func ChunkText(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if limit <= 0 || runeLen(text) <= limit {
		return []string{text}
	}

	var blocks []string
	joiner := " "
	switch {
	case paragraphRX.MatchString(text):
		blocks, joiner = paragraphRX.Split(text, -1), "\n\n"
	case strings.Contains(text, "\n"):
		blocks, joiner = strings.Split(text, "\n"), "\n"
	default:
		blocks = []string{text}
	}

	var out []string
	var cur string
	add := func(piece string) {
		switch {
		case cur == "":
			cur = piece
		case runeLen(cur)+runeLen(joiner)+runeLen(piece) <= limit:
			cur += joiner + piece
		default:
			out = append(out, cur)
			cur = piece
		}
	}
	for _, b := range blocks {
		for _, piece := range splitBySpace(strings.TrimSpace(b), limit) {
			add(piece)
		}
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

func splitBySpace(s string, limit int) []string {
	var parts []string
	for s != "" {
		if runeLen(s) <= limit {
			parts = append(parts, s)
			break
		}
		cut := lastSpaceBefore(s, limit)
		if cut <= 0 {
			cut = byteIndexAtRune(s, limit)
		}
		parts = append(parts, strings.TrimSpace(s[:cut]))
		s = strings.TrimLeftFunc(s[cut:], unicode.IsSpace)
	}
	return parts
}

func lastSpaceBefore(s string, limit int) int {
	last, n := -1, 0
	for i, r := range s {
		if n >= limit {
			break
		}
		if unicode.IsSpace(r) {
			last = i
		}
		n++
	}
	return last
}

func byteIndexAtRune(s string, pos int) int {
	i := 0
	for ; pos > 0 && i < len(s); pos-- {
		_, sz := utf8.DecodeRuneInString(s[i:])
		i += sz
	}
	return i
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
