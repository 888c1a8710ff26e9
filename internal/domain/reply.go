package domain

// Action identifies what a reply button does when pressed.
type Action int

const (
	// ActionURL opens Button.URL.
	ActionURL Action = iota
	// ActionAnswer submits Button.Option for Button.QuestionID.
	ActionAnswer
	// ActionToggleLanguage switches the user's language.
	ActionToggleLanguage
	// ActionUpgrade shows the premium upgrade prompt.
	ActionUpgrade
)

// Button is a transport-neutral choice attached to a reply.
type Button struct {
	Label      string
	Action     Action
	URL        string
	QuestionID string
	Option     string
}

// Reply is what the core asks the transport to deliver to a user.
// ReplaceOriginal asks the transport to edit the message that triggered the event.
type Reply struct {
	UserID          string
	Text            string
	Buttons         [][]Button
	ReplaceOriginal bool
}

// AnswerButtons builds one row per option, each carrying the exact option text.
func AnswerButtons(questionID string, options []string) [][]Button {
	rows := make([][]Button, 0, len(options))
	for _, opt := range options {
		rows = append(rows, []Button{{
			Label:      opt,
			Action:     ActionAnswer,
			QuestionID: questionID,
			Option:     opt,
		}})
	}
	return rows
}
