package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supported language codes.
const (
	LangEnglish = "en"
	LangPersian = "fa"

	// DefaultLang is used whenever a user has no stored preference or a localized value is missing.
	DefaultLang = LangEnglish
)

// ScoreRecord is a user's entry in the users document.
// CurrentQuestion is set between issuing a question and evaluating the answer.
type ScoreRecord struct {
	UserID          string  `json:"-"`
	Score           int     `json:"score"`
	CurrentQuestion *string `json:"current_q"`
}

// HasPendingQuestion reports whether a question is awaiting an answer.
func (r ScoreRecord) HasPendingQuestion() bool {
	return r.CurrentQuestion != nil
}

// PremiumEntry marks a user as entitled to premium questions.
type PremiumEntry struct {
	UserID    string          `json:"-"`
	Email     string          `json:"email"`
	Amount    decimal.Decimal `json:"amount"`
	GrantedAt time.Time       `json:"timestamp"`
}

// Question is a single quiz bank record. Every text field may be localized.
type Question struct {
	ID          QuestionID       `json:"id"`
	Text        LocalizedText    `json:"question"`
	Options     LocalizedOptions `json:"options"`
	Answer      LocalizedText    `json:"answer"`
	Explanation LocalizedText    `json:"explanation"`
	Premium     bool             `json:"premium"`
}

// LocalizedQuestion is a question rendered for one language.
type LocalizedQuestion struct {
	ID          string
	Text        string
	Options     []string
	Answer      string
	Explanation string
	Premium     bool
}

// Localize resolves every field for lang, falling back to DefaultLang per field.
func (q Question) Localize(lang string) LocalizedQuestion {
	return LocalizedQuestion{
		ID:          string(q.ID),
		Text:        q.Text.For(lang),
		Options:     q.Options.For(lang),
		Answer:      q.Answer.For(lang),
		Explanation: q.Explanation.For(lang),
		Premium:     q.Premium,
	}
}

// MessageTable maps a message key to its translations.
type MessageTable map[string]map[string]string

// AnswerResult summarizes the outcome of an evaluated answer.
type AnswerResult struct {
	QuestionID    string
	Correct       bool
	CorrectAnswer string
	Explanation   string
	TotalScore    int
}

// DeliveryFailure records why a broadcast could not reach one recipient.
type DeliveryFailure struct {
	UserID string `json:"userId"`
	Reason string `json:"reason"`
}

// DeliveryReport is the outcome of an administrator broadcast.
type DeliveryReport struct {
	ID        string            `json:"id"`
	Delivered []string          `json:"delivered"`
	Failed    []DeliveryFailure `json:"failed"`
}

// Attempted returns the number of recipients the broadcast tried to reach.
func (r DeliveryReport) Attempted() int {
	return len(r.Delivered) + len(r.Failed)
}
