package models

import (
	"time"

	"github.com/google/uuid"
)

// Questionnaire groups the questions one role answers.
type Questionnaire struct {
	Key       string    `json:"key"`
	Title     string    `json:"title"`
	Language  string    `json:"language"`
	Version   int       `json:"version"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
}

// Answer types.
const (
	AnswerTypeSingleChoice = "single-choice"
	AnswerTypeOpenText     = "open-text"
)

// Score bounds of the answer scale.
const (
	MinScore = 0.0
	MaxScore = 4.0
)

// Question belongs to a questionnaire and is tagged with a principle.
type Question struct {
	ID               uuid.UUID        `json:"id"`
	QuestionnaireKey string           `json:"questionnaireKey"`
	Code             string           `json:"code"`
	Principle        Principle        `json:"principle"`
	Text             string           `json:"text"`
	AnswerType       string           `json:"answerType"`
	Options          []QuestionOption `json:"options"`
	Required         bool             `json:"required"`
	Order            int              `json:"order"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// QuestionOption is one choice of a single-choice question.
type QuestionOption struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ScoreFor returns the score of the option with the given key.
func (q *Question) ScoreFor(optionKey string) (float64, bool) {
	for _, o := range q.Options {
		if o.Key == optionKey {
			return o.Score, true
		}
	}
	return 0, false
}
