package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// ErrJSON produces a standard JSON error response.
func ErrJSON(msg string) map[string]any {
	return map[string]any{
		"success": false,
		"error":   msg,
	}
}

// ErrNoJSON is returned by ExtractJSON when the text holds no JSON object.
var ErrNoJSON = errors.New("no JSON object in model output")

// CleanJSON removes markdown code blocks from a string to extract raw JSON.
func CleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		lines := strings.Split(s, "\n")
		if len(lines) >= 2 {
			if strings.HasPrefix(lines[0], "```") {
				lines = lines[1:]
			}
			if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
				lines = lines[:len(lines)-1]
			}
			s = strings.Join(lines, "\n")
		}
	}
	return strings.TrimSpace(s)
}

// ExtractJSON strips reasoning blocks and code fences from model output and
// trims it down to the outermost JSON object.
func ExtractJSON(out string) (string, error) {
	if strings.Contains(out, "<think>") {
		if idx := strings.LastIndex(out, "</think>"); idx != -1 {
			out = out[idx+len("</think>"):]
		}
	}
	out = CleanJSON(out)
	if out == "" {
		return "", ErrNoJSON
	}
	if out[0] != '{' {
		j := strings.Index(out, "{")
		if j == -1 {
			return "", ErrNoJSON
		}
		out = out[j:]
	}
	if out[len(out)-1] != '}' {
		j := strings.LastIndex(out, "}")
		if j == -1 {
			return "", ErrNoJSON
		}
		out = out[:j+1]
	}
	return out, nil
}

// DecodeJSON extracts and unmarshals the JSON object embedded in model output.
func DecodeJSON[T any](out string) (T, error) {
	var zero T
	raw, err := ExtractJSON(out)
	if err != nil {
		return zero, err
	}
	if err := json.Unmarshal([]byte(raw), &zero); err != nil {
		return zero, fmt.Errorf("decoding model output: %w", err)
	}
	return zero, nil
}

// TruncateRunes cuts s to at most n runes, appending suffix when it was cut.
func TruncateRunes(s string, n int, suffix string) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + suffix
}

type levRows struct {
	prev []int
	curr []int
}

var rowsPool = sync.Pool{
	New: func() any {
		return &levRows{
			prev: make([]int, 0, 64),
			curr: make([]int, 0, 64),
		}
	},
}

func grow(s []int, n int) []int {
	if cap(s) < n {
		return make([]int, n)
	}
	return s[:n]
}

// Levenshtein returns the edit distance between two strings.
func Levenshtein(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(br) > len(ar) {
		ar, br = br, ar
	}
	al, bl := len(ar), len(br)
	if bl == 0 {
		return al
	}

	rows := rowsPool.Get().(*levRows)
	defer rowsPool.Put(rows)
	rows.prev = grow(rows.prev, bl+1)
	rows.curr = grow(rows.curr, bl+1)

	for j := 0; j <= bl; j++ {
		rows.prev[j] = j
	}
	for i := 1; i <= al; i++ {
		rows.curr[0] = i
		for j := 1; j <= bl; j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			rows.curr[j] = min(rows.prev[j]+1, rows.curr[j-1]+1, rows.prev[j-1]+cost)
		}
		rows.prev, rows.curr = rows.curr, rows.prev
	}
	return rows.prev[bl]
}

// Similarity returns a float between 0 and 1 (1 = identical).
func Similarity(a, b string) float64 {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1.0
	}
	maxLen := float64(max(utf8.RuneCountInString(a), utf8.RuneCountInString(b)))
	return 1.0 - float64(Levenshtein(a, b))/maxLen
}

// DedupeSimilar drops blank entries and any entry at least threshold similar
// to one already kept. Order is preserved.
func DedupeSimilar(items []string, threshold float64) []string {
	out := make([]string, 0, len(items))
next:
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		for _, kept := range out {
			if Similarity(kept, item) >= threshold {
				continue next
			}
		}
		out = append(out, item)
	}
	return out
}

var unsafeFilename = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// SanitizeFilename replaces anything outside letters, digits, dot, dash and
// underscore with an underscore.
func SanitizeFilename(s string) string {
	s = strings.TrimFunc(s, unicode.IsSpace)
	s = unsafeFilename.ReplaceAllString(s, "_")
	s = strings.Trim(s, ".")
	if s == "" {
		return "_"
	}
	return s
}
