package schema

import (
	"slices"
	"strings"
)

type Emotion string

const (
	Joy     Emotion = "Joy"
	Sadness Emotion = "Sadness"
	Anger   Emotion = "Anger"
	Anxiety Emotion = "Anxiety"
	Calm    Emotion = "Calm"
	Neutral Emotion = "Neutral"
)

func (e Emotion) String() string { return string(e) }

// aliases maps lower-cased labels the models (and the legacy Korean frontend)
// produce onto the canonical names.
var aliases = map[string]Emotion{
	"joy":       Joy,
	"happy":     Joy,
	"happiness": Joy,
	"기쁨":        Joy,
	"sadness":   Sadness,
	"sad":       Sadness,
	"슬픔":        Sadness,
	"anger":     Anger,
	"angry":     Anger,
	"분노":        Anger,
	"anxiety":   Anxiety,
	"anxious":   Anxiety,
	"fear":      Anxiety,
	"불안":        Anxiety,
	"calm":      Calm,
	"peace":     Calm,
	"peaceful":  Calm,
	"평온":        Calm,
	"neutral":   Neutral,
	"중립":        Neutral,
}

// Vocabulary is the closed set of emotions a deployment accepts.
type Vocabulary struct {
	Emotions []Emotion
	Fallback Emotion
}

// DefaultVocabulary returns the six-emotion set with Calm as fallback.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Emotions: []Emotion{Joy, Sadness, Anger, Anxiety, Calm, Neutral},
		Fallback: Calm,
	}
}

// NewVocabulary builds a vocabulary from raw names. Unknown names are kept
// as-is so deployments can extend the set; an empty list yields the default.
func NewVocabulary(names []string, fallback string) Vocabulary {
	v := Vocabulary{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		e := canonical(n)
		if !slices.Contains(v.Emotions, e) {
			v.Emotions = append(v.Emotions, e)
		}
	}
	if len(v.Emotions) == 0 {
		v = DefaultVocabulary()
	}
	if fallback != "" {
		v.Fallback = canonical(fallback)
	}
	if v.Fallback == "" || !slices.Contains(v.Emotions, v.Fallback) {
		v.Fallback = v.Emotions[0]
		if slices.Contains(v.Emotions, Calm) {
			v.Fallback = Calm
		}
	}
	return v
}

// Normalize maps a model-produced label onto the vocabulary.
func (v Vocabulary) Normalize(raw string) (Emotion, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	e := canonical(raw)
	if slices.Contains(v.Emotions, e) {
		return e, true
	}
	return "", false
}

func (v Vocabulary) Names() []string {
	out := make([]string, len(v.Emotions))
	for i, e := range v.Emotions {
		out[i] = string(e)
	}
	return out
}

func canonical(raw string) Emotion {
	key := strings.ToLower(strings.TrimSpace(raw))
	if e, ok := aliases[key]; ok {
		return e
	}
	for _, e := range []Emotion{Joy, Sadness, Anger, Anxiety, Calm, Neutral} {
		if strings.EqualFold(string(e), key) {
			return e
		}
	}
	r := []rune(strings.TrimSpace(raw))
	return Emotion(strings.ToUpper(string(r[:1])) + string(r[1:]))
}
