package telegram

import (
	"errors"
	"fmt"
	"strings"

	"github.com/FoadGhasemi/CodeSpark/internal/domain"
)

// Callback data sent with inline buttons.
const (
	callbackAnswer     = "answer"
	callbackChangeLang = "change_lang"
	callbackUpgrade    = "upgrade"
)

// maxCallbackData is Telegram's limit on callback_data, in bytes.
const maxCallbackData = 64

type callback struct {
	kind       string
	questionID string
	option     string
}

// errColonInQuestionID rejects ids that parseCallback could not split back out.
var errColonInQuestionID = errors.New("question id contains ':'")

func encodeCallback(b domain.Button) (string, error) {
	switch b.Action {
	case domain.ActionAnswer:
		if strings.Contains(b.QuestionID, ":") {
			return "", fmt.Errorf("encode answer for %q: %w", b.QuestionID, errColonInQuestionID)
		}
		return callbackAnswer + ":" + b.QuestionID + ":" + b.Option, nil
	case domain.ActionToggleLanguage:
		return callbackChangeLang, nil
	case domain.ActionUpgrade:
		return callbackUpgrade, nil
	}
	return "", fmt.Errorf("no callback for action %d", b.Action)
}

// parseCallback splits data into at most three parts so options may contain
// colons. Question ids never do.
func parseCallback(data string) (callback, bool) {
	parts := strings.SplitN(data, ":", 3)
	switch parts[0] {
	case callbackAnswer:
		if len(parts) != 3 {
			return callback{}, false
		}
		return callback{kind: callbackAnswer, questionID: parts[1], option: parts[2]}, true
	case callbackChangeLang, callbackUpgrade:
		if len(parts) != 1 {
			return callback{}, false
		}
		return callback{kind: parts[0]}, true
	}
	return callback{}, false
}
