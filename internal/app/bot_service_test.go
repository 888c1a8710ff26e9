package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FoadGhasemi/CodeSpark/internal/app"
	"github.com/FoadGhasemi/CodeSpark/internal/domain"
	"github.com/FoadGhasemi/CodeSpark/internal/infra/memory"
	"github.com/FoadGhasemi/CodeSpark/internal/logging"
)

const testMessages = `{
  "start":            {"en": "Welcome!", "fa": "خوش آمدید!"},
  "help":             {"en": "Use /quiz", "fa": "از /quiz استفاده کنید"},
  "score":            {"en": "Your score:", "fa": "امتیاز شما:"},
  "correct":          {"en": "✅ Correct!", "fa": "✅ درست!"},
  "wrong":            {"en": "❌ Wrong! Correct answer:", "fa": "❌ غلط! پاسخ درست:"},
  "premium_required": {"en": "Premium only", "fa": "فقط ویژه"},
  "upgrade":          {"en": "Upgrade here", "fa": "ارتقا"},
  "lang_set":         {"en": "Language set", "fa": "زبان تنظیم شد"},
  "email_received":   {"en": "Email saved"},
  "email_usage":      {"en": "Usage: /setemail you@example.com"},
  "no_questions":     {"en": "No questions yet"},
  "question_not_found": {"en": "Question not found"},
  "premium_granted":  {"en": "You are premium now"},
  "broadcast_done":   {"en": "Broadcast sent:"},
  "broadcast_usage":  {"en": "Usage: /broadcast <text>"}
}`

const q1Quiz = `[{
  "id": "q1",
  "question": {"en": "Which keyword declares a constant in Go?", "fa": "کدام کلمه کلیدی ثابت تعریف می‌کند؟"},
  "options": {"en": ["var", "const"], "fa": ["متغیر", "ثابت"]},
  "answer": {"en": "const", "fa": "ثابت"},
  "explanation": {"en": "const declares constants.", "fa": "const ثابت تعریف می‌کند."}
}]`

const premiumQuiz = `[{"id": 7, "question": "Premium?", "options": ["a", "b"], "answer": "a", "explanation": "a", "premium": true}]`

type sentMessage struct {
	userID string
	text   string
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
	fail map[string]error
}

func (m *fakeMessenger) Send(_ context.Context, userID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.fail[userID]; ok {
		return err
	}
	m.sent = append(m.sent, sentMessage{userID: userID, text: text})
	return nil
}

func (m *fakeMessenger) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sent))
	for _, s := range m.sent {
		ids = append(ids, s.userID)
	}
	return ids
}

type fixture struct {
	store     *memory.DocumentStore
	messenger *fakeMessenger
	service   *app.BotService
}

func newFixture(t *testing.T, docs map[string]string) *fixture {
	t.Helper()
	seed := map[string]string{"messages": testMessages, "quizzes": q1Quiz}
	for k, v := range docs {
		seed[k] = v
	}
	store := memory.NewDocumentStoreWith(seed)
	messenger := &fakeMessenger{fail: map[string]error{}}
	service := app.NewBotService(store, messenger, app.ServiceOptions{
		AdminID:     "1",
		SupportURL:  "https://buymeacoffee.com/codespark",
		SendTimeout: time.Second,
		Logger:      zerolog.Nop(),
		Rand:        rand.New(rand.NewSource(1)),
		Clock:       func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	})
	return &fixture{store: store, messenger: messenger, service: service}
}

func (f *fixture) document(t *testing.T, name string) string {
	t.Helper()
	data, err := f.store.Get(context.Background(), name)
	require.NoError(t, err)
	return string(data)
}

func TestStartOffersMenuButtons(t *testing.T) {
	f := newFixture(t, nil)
	reply := f.service.Start(context.Background(), "42")

	assert.Equal(t, "Welcome!", reply.Text)
	require.Len(t, reply.Buttons, 3)
	assert.Equal(t, domain.ActionURL, reply.Buttons[0][0].Action)
	assert.Equal(t, "https://buymeacoffee.com/codespark", reply.Buttons[0][0].URL)
	assert.Equal(t, domain.ActionToggleLanguage, reply.Buttons[1][0].Action)
	assert.Equal(t, domain.ActionUpgrade, reply.Buttons[2][0].Action)
}

func TestQuizAnswerScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	reply := f.service.RequestQuiz(ctx, "42")
	assert.Equal(t, "🧠 Which keyword declares a constant in Go?", reply.Text)
	require.Len(t, reply.Buttons, 2)
	assert.Equal(t, "const", reply.Buttons[1][0].Label)
	assert.Equal(t, "q1", reply.Buttons[1][0].QuestionID)

	rec, ok := f.service.Scores().Get(ctx, "42")
	require.True(t, ok)
	require.NotNil(t, rec.CurrentQuestion)
	assert.Equal(t, "q1", *rec.CurrentQuestion)

	verdict := f.service.SubmitAnswer(ctx, "42", "q1", "const")
	assert.True(t, verdict.ReplaceOriginal)
	assert.Equal(t, "✅ Correct!\n\nconst declares constants.", verdict.Text)

	rec, _ = f.service.Scores().Get(ctx, "42")
	assert.Equal(t, 1, rec.Score)
	assert.Nil(t, rec.CurrentQuestion)

	score := f.service.RequestScore(ctx, "42")
	assert.Equal(t, "🏆 Your score: 1", score.Text)
}

func TestWrongAnswerKeepsScoreAndShowsCorrectAnswer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]string{"users": `{"42": {"score": 3, "current_q": "q1"}}`})

	verdict := f.service.SubmitAnswer(ctx, "42", "q1", "var")
	assert.Equal(t, "❌ Wrong! Correct answer: const\n\nconst declares constants.", verdict.Text)

	rec, _ := f.service.Scores().Get(ctx, "42")
	assert.Equal(t, 3, rec.Score)
	assert.Nil(t, rec.CurrentQuestion)
}

func TestMissingQuestionClearsPendingWithoutScoring(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]string{"users": `{"42": {"score": 2, "current_q": "gone"}}`})

	verdict := f.service.SubmitAnswer(ctx, "42", "gone", "x")
	assert.Equal(t, "❌ Question not found", verdict.Text)
	assert.True(t, verdict.ReplaceOriginal)

	rec, _ := f.service.Scores().Get(ctx, "42")
	assert.Equal(t, 2, rec.Score)
	assert.Nil(t, rec.CurrentQuestion)
}

func TestAnswerUsesLanguageAtAnswerTime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	f.service.RequestQuiz(ctx, "42")
	f.service.ToggleLanguage(ctx, "42")

	// The English label no longer matches once the user switched to Persian.
	verdict := f.service.SubmitAnswer(ctx, "42", "q1", "const")
	assert.True(t, strings.HasPrefix(verdict.Text, "❌ غلط!"))

	f.service.RequestQuiz(ctx, "42")
	verdict = f.service.SubmitAnswer(ctx, "42", "q1", "ثابت")
	assert.True(t, strings.HasPrefix(verdict.Text, "✅ درست!"))

	rec, _ := f.service.Scores().Get(ctx, "42")
	assert.Equal(t, 1, rec.Score)
}

func TestPremiumQuestionWithheldFromFreeUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]string{"quizzes": premiumQuiz})

	reply := f.service.RequestQuiz(ctx, "42")
	assert.Equal(t, "Premium only", reply.Text)
	assert.Empty(t, reply.Buttons)

	_, ok := f.service.Scores().Get(ctx, "42")
	assert.False(t, ok, "gated request must not create a score record")
	_, err := f.store.Get(ctx, "users")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestPremiumQuestionServedToPremiumUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]string{
		"quizzes":       premiumQuiz,
		"premium_users": `{"42": {"email": "a@x.com", "amount": 5, "timestamp": "2024-01-01T00:00:00Z"}}`,
	})

	reply := f.service.RequestQuiz(ctx, "42")
	assert.Equal(t, "🧠 Premium?", reply.Text)
	rec, _ := f.service.Scores().Get(ctx, "42")
	require.NotNil(t, rec.CurrentQuestion)
	assert.Equal(t, "7", *rec.CurrentQuestion)
}

func TestEmptyCatalog(t *testing.T) {
	f := newFixture(t, map[string]string{"quizzes": `[]`})
	reply := f.service.RequestQuiz(context.Background(), "42")
	assert.Equal(t, "No questions yet", reply.Text)
}

func TestToggleLanguageConfirmsInNewLanguage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	assert.Equal(t, "زبان تنظیم شد", f.service.ToggleLanguage(ctx, "42").Text)
	assert.JSONEq(t, `{"42": "fa"}`, f.document(t, "user_languages"))
	assert.Equal(t, "Language set", f.service.ToggleLanguage(ctx, "42").Text)
	assert.JSONEq(t, `{"42": "en"}`, f.document(t, "user_languages"))
}

func TestRegisterEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	assert.Equal(t, "Usage: /setemail you@example.com", f.service.RegisterEmail(ctx, "42", "   ").Text)
	_, err := f.store.Get(ctx, "user_emails")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	assert.Equal(t, "Email saved", f.service.RegisterEmail(ctx, "42", "  a@x.com ").Text)
	assert.JSONEq(t, `{"42": "a@x.com"}`, f.document(t, "user_emails"))
}

func TestPaymentNotificationGrantsAndNotifies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]string{"user_emails": `{"42": "a@x.com"}`})

	entry, err := f.service.PaymentNotification(ctx, "a@x.com", decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.Equal(t, "42", entry.UserID)
	assert.True(t, f.service.Premium().IsPremium(ctx, "42"))
	assert.JSONEq(t,
		`{"42": {"email": "a@x.com", "amount": "5", "timestamp": "2024-05-01T12:00:00Z"}}`,
		f.document(t, "premium_users"))
	assert.Equal(t, []sentMessage{{userID: "42", text: "You are premium now"}}, f.messenger.sent)
}

func TestPaymentNotificationWithoutMatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]string{"user_emails": `{"42": "a@x.com"}`})

	_, err := f.service.PaymentNotification(ctx, "A@x.com", decimal.NewFromInt(5))
	assert.ErrorIs(t, err, domain.ErrNoPaymentMatch)
	assert.False(t, f.service.Premium().IsPremium(ctx, "42"))
	assert.Empty(t, f.messenger.sent)
}

func TestPaymentNotificationSurvivesDeliveryFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]string{"user_emails": `{"42": "a@x.com"}`})
	f.messenger.fail["42"] = errors.New("bot was blocked by the user")

	_, err := f.service.PaymentNotification(ctx, "a@x.com", decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.True(t, f.service.Premium().IsPremium(ctx, "42"))
}

func TestAdminBroadcastReportsPartialFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]string{"users": `{
		"10": {"score": 0, "current_q": null},
		"2":  {"score": 1, "current_q": null},
		"1":  {"score": 4, "current_q": null}
	}`})
	f.messenger.fail["10"] = errors.New("chat not found")

	reply, ok := f.service.AdminBroadcast(ctx, "1", "  New questions!  ")
	require.True(t, ok)
	assert.Equal(t, "Broadcast sent: 2/3\n10: chat not found", reply.Text)
	assert.Equal(t, []string{"1", "2"}, f.messenger.recipients())
	for _, s := range f.messenger.sent {
		assert.Equal(t, "New questions!", s.text)
	}
}

func TestAdminBroadcastIgnoresNonAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]string{"users": `{"1": {"score": 0}, "2": {"score": 0}}`})

	reply, ok := f.service.AdminBroadcast(ctx, "2", "spam")
	assert.False(t, ok)
	assert.Empty(t, reply.Text)
	assert.Empty(t, f.messenger.sent)
}

func TestAdminBroadcastUsage(t *testing.T) {
	f := newFixture(t, nil)
	reply, ok := f.service.AdminBroadcast(context.Background(), "1", " ")
	require.True(t, ok)
	assert.Equal(t, "Usage: /broadcast <text>", reply.Text)
	assert.Empty(t, f.messenger.sent)
}

func TestUnknownCommandEchoesMissingKey(t *testing.T) {
	f := newFixture(t, nil)
	assert.Equal(t, "unknown_command", f.service.UnknownCommand(context.Background(), "42").Text)
}

func TestServiceLogsThroughRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	f := newFixture(t, map[string]string{"user_emails": `{"42": "a@x.com"}`})
	logger := logging.NewWithWriter(&buf, "codespark", "production").With().Str("request_id", "r-1").Logger()
	ctx := logging.IntoContext(context.Background(), logger)

	_, err := f.service.PaymentNotification(ctx, "nobody@x.com", decimal.NewFromInt(3))
	require.ErrorIs(t, err, domain.ErrNoPaymentMatch)

	out := buf.String()
	assert.Contains(t, out, "payment without registered user")
	assert.Contains(t, out, "request_id=r-1")
	assert.Contains(t, out, "email=nobody@x.com")
}

func TestConcurrentUsersKeepEveryUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	const users = 40
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			f.service.RegisterEmail(ctx, id, id+"@x.com")
			f.service.RequestQuiz(ctx, id)
			f.service.SubmitAnswer(ctx, id, "q1", "const")
			f.service.ToggleLanguage(ctx, id)
			f.service.RequestQuiz(ctx, id)
			f.service.SubmitAnswer(ctx, id, "q1", "ثابت")
		}(strconv.Itoa(100 + i))
	}
	wg.Wait()

	var scores map[string]domain.ScoreRecord
	require.NoError(t, json.Unmarshal([]byte(f.document(t, "users")), &scores))
	var emails, langs map[string]string
	require.NoError(t, json.Unmarshal([]byte(f.document(t, "user_emails")), &emails))
	require.NoError(t, json.Unmarshal([]byte(f.document(t, "user_languages")), &langs))

	require.Len(t, scores, users)
	require.Len(t, emails, users)
	require.Len(t, langs, users)
	for i := 0; i < users; i++ {
		id := strconv.Itoa(100 + i)
		assert.Equal(t, 2, scores[id].Score, id)
		assert.False(t, scores[id].HasPendingQuestion(), id)
		assert.Equal(t, id+"@x.com", emails[id], id)
		assert.Equal(t, domain.LangPersian, langs[id], id)
	}
}
