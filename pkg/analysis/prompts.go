package analysis

import (
	"fmt"
	"strings"
)

func analyzeSystemPrompt(emotions []string) string {
	return fmt.Sprintf(`You are a diary analysis expert.
Read the user's diary entry and extract the following as a JSON object:
- "emotion": the primary emotion, exactly one of: %s
- "emotion_intensity": how strong that emotion is, an integer from 1 to 10
- "sub_emotions": two or three secondary emotions
- "summary": the diary summarized in two or three sentences
- "keywords": three to five key words
- "one_line": the whole day expressed in a single sentence
Answer in the language the diary is written in, except "emotion" which must use the exact name given above.`,
		strings.Join(emotions, ", "))
}

func analyzeUserPrompt(text string) string {
	return "Analyze the following diary entry:\n\n" + text
}

const summarizeSystemPrompt = `You summarize personal diary entries.
Write a warm, faithful summary in two or three sentences, in the language of the entry.
Do not add events that are not in the text. Reply with the summary only.`

const summarizeMergePrompt = `You are given partial summaries of one long diary entry, in order.
Merge them into a single summary of two or three sentences, in the language of the entry.
Reply with the summary only.`

const webtoonSummarySystemPrompt = `You are a webtoon storyboard writer who turns diaries into visual scenes.
Summarize the diary as the single key moment one webtoon panel could show.
Keep the main emotion and situation, what the character does and how they react.
Use one or two sentences in the language of the diary. Reply with the summary only.`
