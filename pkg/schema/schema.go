package schema

// AnalysisRecord is the structured extraction of one diary entry.
// Success is false when the record is a locally generated fallback.
type AnalysisRecord struct {
	Emotion     Emotion  `json:"emotion"`
	Intensity   int      `json:"intensity"`
	SubEmotions []string `json:"subEmotions"`
	Summary     string   `json:"summary"`
	Keywords    []string `json:"keywords"`
	OneLine     string   `json:"oneLine"`
	Success     bool     `json:"success"`
}

// Panel is one story beat. ImageURL stays nil until an illustration succeeds.
type Panel struct {
	Scene             string  `json:"scene"`
	Dialogue          string  `json:"dialogue"`
	Emotion           string  `json:"emotion"`
	ImageURL          *string `json:"imageUrl"`
	ImageSavedLocally bool    `json:"imageSavedLocally"`
	CharacterUsed     bool    `json:"characterUsed"`
}

type Story struct {
	Panels  []Panel `json:"panels"`
	Success bool    `json:"success"`
}

// CharacterDescriptor describes the user's character. BaseImages maps an
// emotion name to a reference image URL of the character showing it.
type CharacterDescriptor struct {
	Description string            `json:"description"`
	BaseImages  map[string]string `json:"baseImages,omitempty"`
}

// HasBaseImages reports whether the stricter consistency mode applies.
func (c *CharacterDescriptor) HasBaseImages() bool {
	return c != nil && len(c.BaseImages) > 0
}

// IsEmpty reports whether the descriptor carries nothing usable.
func (c *CharacterDescriptor) IsEmpty() bool {
	return c == nil || (c.Description == "" && len(c.BaseImages) == 0)
}

type DailyNarrative struct {
	Day       string `json:"day"`
	Narrative string `json:"narrative"`
	Connector string `json:"connector"`
}

type WeeklySummary struct {
	DailyNarratives  []DailyNarrative `json:"dailyNarratives"`
	WeeklySummary    string           `json:"weeklySummary"`
	EmotionalJourney string           `json:"emotionalJourney"`
	EmotionFlow      []Emotion        `json:"emotionFlow"`
	EmotionStats     map[Emotion]int  `json:"emotionStats"`
	DominantEmotion  Emotion          `json:"dominantEmotion"`
	Success          bool             `json:"success"`
}

// Weekdays labels the seven daily records of a week, Monday first.
var Weekdays = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Tally counts emotions in record order. The dominant emotion is the most
// frequent one; ties go to whichever of the tied emotions appeared first.
func Tally(records []AnalysisRecord) (flow []Emotion, stats map[Emotion]int, dominant Emotion) {
	flow = make([]Emotion, 0, len(records))
	stats = make(map[Emotion]int, len(records))
	var order []Emotion
	for _, r := range records {
		flow = append(flow, r.Emotion)
		if _, ok := stats[r.Emotion]; !ok {
			order = append(order, r.Emotion)
		}
		stats[r.Emotion]++
	}

	best := 0
	for _, e := range order {
		if stats[e] > best {
			best = stats[e]
			dominant = e
		}
	}
	return flow, stats, dominant
}
