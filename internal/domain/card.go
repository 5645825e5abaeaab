package domain

// MaxLevel is the highest mastery level a card can reach.
const MaxLevel = 5

// MinLevel is the level every new card starts at and the level a card
// falls back to after a wrong answer.
const MinLevel = 1

// Card is one two-sided flashcard. QuestionHTML and AnswerHTML hold
// rich-text content that must be sanitized before rendering.
type Card struct {
	ID           string `json:"id"`
	QuestionHTML string `json:"questionHtml"`
	AnswerHTML   string `json:"answerHtml"`
	Level        int    `json:"level"`
}

// CardContent is the editable part of a card, without identity or
// mastery state. Bulk ingestion paths (codec import, CSV/XLSX import)
// deliver cards in this form.
type CardContent struct {
	QuestionHTML string `json:"questionHtml"`
	AnswerHTML   string `json:"answerHtml"`
}

// ClampLevel forces a level into [MinLevel, MaxLevel]. Levels outside
// the range can only come from hand-edited or imported data.
func ClampLevel(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}
