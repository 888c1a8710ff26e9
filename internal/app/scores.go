package app

import (
	"context"
	"sort"

	"github.com/FoadGhasemi/CodeSpark/internal/domain"
)

// ScoreLedger keeps per-user score and the question currently awaiting an answer.
type ScoreLedger struct {
	docs      *documents
	name      string
	catalog   *Catalog
	localizer *Localizer
}

func newScoreLedger(docs *documents, name string, catalog *Catalog, localizer *Localizer) *ScoreLedger {
	return &ScoreLedger{docs: docs, name: name, catalog: catalog, localizer: localizer}
}

// Get returns the user's record without creating one.
func (l *ScoreLedger) Get(ctx context.Context, userID string) (domain.ScoreRecord, bool) {
	users := loadMap[domain.ScoreRecord](ctx, l.docs, l.name)
	rec, ok := users[userID]
	rec.UserID = userID
	return rec, ok
}

// GetOrCreate returns the user's record, persisting a fresh one (score 0) if absent.
func (l *ScoreLedger) GetOrCreate(ctx context.Context, userID string) (domain.ScoreRecord, error) {
	unlock := l.docs.lock(l.name)
	defer unlock()

	users, err := loadMapForUpdate[domain.ScoreRecord](ctx, l.docs, l.name)
	if err != nil {
		return domain.ScoreRecord{UserID: userID}, err
	}
	rec, ok := users[userID]
	rec.UserID = userID
	if ok {
		return rec, nil
	}
	users[userID] = rec
	return rec, saveDocument(ctx, l.docs, l.name, users)
}

// SetCurrentQuestion records questionID as awaiting an answer, creating the user if needed.
func (l *ScoreLedger) SetCurrentQuestion(ctx context.Context, userID, questionID string) error {
	unlock := l.docs.lock(l.name)
	defer unlock()

	users, err := loadMapForUpdate[domain.ScoreRecord](ctx, l.docs, l.name)
	if err != nil {
		return err
	}
	rec := users[userID]
	qid := questionID
	rec.CurrentQuestion = &qid
	users[userID] = rec
	return saveDocument(ctx, l.docs, l.name, users)
}

// EvaluateAnswer compares submitted against the question's answer in the user's
// language at answer time. A match adds exactly one point. The pending question
// is cleared in every case, including when the question no longer exists, in
// which case domain.ErrQuestionNotFound is returned and the score is untouched.
func (l *ScoreLedger) EvaluateAnswer(ctx context.Context, userID, questionID, submitted string) (domain.AnswerResult, error) {
	result := domain.AnswerResult{QuestionID: questionID}

	question, err := l.catalog.FindByID(ctx, questionID)
	if err != nil {
		if clearErr := l.clearCurrent(ctx, userID); clearErr != nil {
			l.docs.log(ctx).Error().Err(clearErr).Str("user_id", userID).Msg("failed to clear pending question")
		}
		return result, err
	}

	lang := l.localizer.Language(ctx, userID)
	localized := question.Localize(lang)
	result.CorrectAnswer = localized.Answer
	result.Explanation = localized.Explanation
	result.Correct = submitted == localized.Answer

	unlock := l.docs.lock(l.name)
	defer unlock()

	users, err := loadMapForUpdate[domain.ScoreRecord](ctx, l.docs, l.name)
	if err != nil {
		return result, err
	}
	rec := users[userID]
	if result.Correct {
		rec.Score++
	}
	rec.CurrentQuestion = nil
	users[userID] = rec
	result.TotalScore = rec.Score

	if err := saveDocument(ctx, l.docs, l.name, users); err != nil {
		return result, err
	}
	return result, nil
}

func (l *ScoreLedger) clearCurrent(ctx context.Context, userID string) error {
	unlock := l.docs.lock(l.name)
	defer unlock()

	users, err := loadMapForUpdate[domain.ScoreRecord](ctx, l.docs, l.name)
	if err != nil {
		return err
	}
	rec, ok := users[userID]
	if !ok || !rec.HasPendingQuestion() {
		return nil
	}
	rec.CurrentQuestion = nil
	users[userID] = rec
	return saveDocument(ctx, l.docs, l.name, users)
}

// UserIDs lists every user with a score record, ordered by compareUserIDs.
func (l *ScoreLedger) UserIDs(ctx context.Context) []string {
	users := loadMap[domain.ScoreRecord](ctx, l.docs, l.name)
	ids := make([]string, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sortUserIDs(ids)
	return ids
}

func sortUserIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return compareUserIDs(ids[i], ids[j]) < 0 })
}
