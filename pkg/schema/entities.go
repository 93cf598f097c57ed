package schema

import (
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
)

// AnalysisReply is the shape the extractor asks the model for.
type AnalysisReply struct {
	Emotion     string   `json:"emotion" jsonschema_description:"Primary emotion, exactly one of the allowed emotion names"`
	Intensity   int      `json:"emotion_intensity" jsonschema_description:"Intensity of the primary emotion from 1 to 10"`
	SubEmotions []string `json:"sub_emotions" jsonschema_description:"Two or three secondary emotions"`
	Summary     string   `json:"summary" jsonschema_description:"Two or three sentence summary of the diary"`
	Keywords    []string `json:"keywords" jsonschema_description:"Three to five key words"`
	OneLine     string   `json:"one_line" jsonschema_description:"The day expressed in one sentence"`
}

type PanelReply struct {
	Scene    string `json:"scene" jsonschema_description:"Concrete scene: character position, expression, action, background"`
	Dialogue string `json:"dialogue" jsonschema_description:"Line or monologue spoken by the character"`
}

// StoryReply is the shape the composer asks the model for.
type StoryReply struct {
	Panels []PanelReply `json:"panels" jsonschema_description:"Panels in reading order"`
}

type NarrativeReply struct {
	Day       string `json:"day" jsonschema_description:"Day of the week"`
	Narrative string `json:"narrative" jsonschema_description:"Two or three sentence narration of the day"`
	Connector string `json:"connector" jsonschema_description:"Short phrase leading into the next day; empty for the last day"`
}

// WeeklyReply is the shape the weekly aggregator asks the model for.
type WeeklyReply struct {
	DailyNarratives  []NarrativeReply `json:"daily_narratives" jsonschema_description:"Exactly seven narratives, Monday to Sunday"`
	WeeklySummary    string           `json:"weekly_summary" jsonschema_description:"Two or three sentence summary of the week"`
	EmotionalJourney string           `json:"emotional_journey" jsonschema_description:"One line describing how the emotions changed"`
}

func generateSchema[T any]() any {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return r.Reflect(v)
}

var (
	AnalysisSchema = generateSchema[AnalysisReply]()
	StorySchema    = generateSchema[StoryReply]()
	WeeklySchema   = generateSchema[WeeklyReply]()
)

func responseFormat(name, description string, schema any) openai.ChatCompletionNewParamsResponseFormatUnion {
	p := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        name,
		Description: openai.String(description),
		Schema:      schema,
		Strict:      openai.Bool(true),
	}
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: p},
	}
}

func AnalysisResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	return responseFormat("diary_analysis", "Emotion, summary and keywords extracted from a diary entry", AnalysisSchema)
}

func StoryResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	return responseFormat("webtoon_story", "Comic panels with scene and dialogue", StorySchema)
}

func WeeklyResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	return responseFormat("weekly_narrative", "Connected narration for seven diary days", WeeklySchema)
}

// JSONObjectResponseFormat forces a valid JSON object without a schema, for
// providers that reject strict schemas.
func JSONObjectResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
	}
}
