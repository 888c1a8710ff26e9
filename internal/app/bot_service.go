package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/FoadGhasemi/CodeSpark/internal/domain"
	"github.com/FoadGhasemi/CodeSpark/internal/metrics"
)

// Message keys looked up in the messages document.
const (
	MsgStart            = "start"
	MsgHelp             = "help"
	MsgScore            = "score"
	MsgCorrect          = "correct"
	MsgWrong            = "wrong"
	MsgPremiumRequired  = "premium_required"
	MsgUpgrade          = "upgrade"
	MsgLangSet          = "lang_set"
	MsgEmailReceived    = "email_received"
	MsgEmailUsage       = "email_usage"
	MsgNoQuestions      = "no_questions"
	MsgQuestionNotFound = "question_not_found"
	MsgPremiumGranted   = "premium_granted"
	MsgBroadcastDone    = "broadcast_done"
	MsgBroadcastUsage   = "broadcast_usage"
	MsgUnknownCommand   = "unknown_command"
)

// Button labels on the start menu.
const (
	LabelSupport = "☕ Support Us"
	LabelLang    = "🇮🇷 فارسی / English"
	LabelUpgrade = "🚀 Upgrade to Pro"
)

// ServiceOptions configures BotService.
type ServiceOptions struct {
	AdminID     string
	SupportURL  string
	SendTimeout time.Duration
	Documents   DocumentNames
	Logger      zerolog.Logger
	Metrics     *metrics.Recorder
	Rand        *rand.Rand
	Clock       func() time.Time
}

// BotService implements every user-facing action of the bot on top of a DocumentStore.
type BotService struct {
	opts        ServiceOptions
	logger      zerolog.Logger
	metrics     *metrics.Recorder
	messenger   Messenger
	localizer   *Localizer
	catalog     *Catalog
	scores      *ScoreLedger
	premium     *PremiumLedger
	emails      *EmailRegistry
	payments    *PaymentMatcher
	broadcaster *Broadcaster
}

func NewBotService(store DocumentStore, messenger Messenger, opts ServiceOptions) *BotService {
	names := opts.Documents.withDefaults()
	opts.Documents = names
	rec := opts.Metrics
	if rec == nil {
		rec = metrics.Nop()
	}
	logger := opts.Logger.With().Str("component", "bot_service").Logger()

	docs := newDocuments(store, logger)
	localizer := newLocalizer(docs, names)
	catalog := newCatalog(docs, names.Quizzes, opts.Rand)
	scores := newScoreLedger(docs, names.Users, catalog, localizer)
	premium := newPremiumLedger(docs, names.Premium, opts.Clock)
	emails := newEmailRegistry(docs, names.Emails)

	return &BotService{
		opts:        opts,
		logger:      logger,
		metrics:     rec,
		messenger:   messenger,
		localizer:   localizer,
		catalog:     catalog,
		scores:      scores,
		premium:     premium,
		emails:      emails,
		payments:    newPaymentMatcher(emails, premium),
		broadcaster: newBroadcaster(opts.AdminID, scores, messenger, opts.SendTimeout, rec, opts.Logger),
	}
}

func (s *BotService) Scores() *ScoreLedger    { return s.scores }
func (s *BotService) Premium() *PremiumLedger { return s.premium }

// log returns the request-scoped logger when ctx carries one.
func (s *BotService) log(ctx context.Context) *zerolog.Logger {
	logger := requestLogger(ctx, s.logger)
	return &logger
}

func (s *BotService) text(ctx context.Context, userID, key string) string {
	return s.localizer.Resolve(ctx, userID, key)
}

func (s *BotService) reply(userID, text string) domain.Reply {
	return domain.Reply{UserID: userID, Text: text}
}

// Start greets the user and offers support, language and upgrade buttons.
func (s *BotService) Start(ctx context.Context, userID string) domain.Reply {
	r := s.reply(userID, s.text(ctx, userID, MsgStart))
	if s.opts.SupportURL != "" {
		r.Buttons = append(r.Buttons, []domain.Button{{Label: LabelSupport, Action: domain.ActionURL, URL: s.opts.SupportURL}})
	}
	r.Buttons = append(r.Buttons,
		[]domain.Button{{Label: LabelLang, Action: domain.ActionToggleLanguage}},
		[]domain.Button{{Label: LabelUpgrade, Action: domain.ActionUpgrade}},
	)
	return r
}

func (s *BotService) Help(ctx context.Context, userID string) domain.Reply {
	return s.reply(userID, s.text(ctx, userID, MsgHelp))
}

// RequestQuiz draws a random question. Premium questions drawn for a
// non-premium user are withheld and no state changes.
func (s *BotService) RequestQuiz(ctx context.Context, userID string) domain.Reply {
	question, err := s.catalog.PickRandom(ctx)
	if err != nil {
		s.log(ctx).Warn().Err(err).Str("user_id", userID).Msg("no question available")
		return s.reply(userID, s.text(ctx, userID, MsgNoQuestions))
	}

	if question.Premium && !s.premium.IsPremium(ctx, userID) {
		s.metrics.PremiumDenied()
		return s.reply(userID, s.text(ctx, userID, MsgPremiumRequired))
	}

	if err := s.scores.SetCurrentQuestion(ctx, userID, string(question.ID)); err != nil {
		s.log(ctx).Error().Err(err).Str("user_id", userID).Str("question_id", string(question.ID)).Msg("failed to record pending question")
	}
	s.metrics.QuestionIssued(question.Premium)

	localized := question.Localize(s.localizer.Language(ctx, userID))
	r := s.reply(userID, "🧠 "+localized.Text)
	r.Buttons = domain.AnswerButtons(localized.ID, localized.Options)
	return r
}

func (s *BotService) RequestScore(ctx context.Context, userID string) domain.Reply {
	rec, _ := s.scores.Get(ctx, userID)
	return s.reply(userID, fmt.Sprintf("🏆 %s %d", s.text(ctx, userID, MsgScore), rec.Score))
}

// RegisterEmail stores the email the user will pay with. The text is trimmed
// but otherwise not validated.
func (s *BotService) RegisterEmail(ctx context.Context, userID, emailText string) domain.Reply {
	email := strings.TrimSpace(emailText)
	if email == "" {
		return s.reply(userID, s.text(ctx, userID, MsgEmailUsage))
	}
	if err := s.emails.Register(ctx, userID, email); err != nil {
		s.log(ctx).Error().Err(err).Str("user_id", userID).Msg("failed to register email")
	}
	return s.reply(userID, s.text(ctx, userID, MsgEmailReceived))
}

// AdminBroadcast relays text to every user. The second return value is false
// when the sender is not the administrator, in which case nothing must be sent back.
func (s *BotService) AdminBroadcast(ctx context.Context, senderID, text string) (domain.Reply, bool) {
	if !s.broadcaster.IsAdmin(senderID) {
		return domain.Reply{}, false
	}
	message := strings.TrimSpace(text)
	if message == "" {
		return s.reply(senderID, s.text(ctx, senderID, MsgBroadcastUsage)), true
	}

	report, err := s.broadcaster.Broadcast(ctx, senderID, message)
	if err != nil {
		return domain.Reply{}, false
	}
	summary := fmt.Sprintf("%s %d/%d", s.text(ctx, senderID, MsgBroadcastDone), len(report.Delivered), report.Attempted())
	for _, f := range report.Failed {
		summary += fmt.Sprintf("\n%s: %s", f.UserID, f.Reason)
	}
	return s.reply(senderID, summary), true
}

// SubmitAnswer evaluates a button press and replaces the question message with the verdict.
func (s *BotService) SubmitAnswer(ctx context.Context, userID, questionID, option string) domain.Reply {
	result, err := s.scores.EvaluateAnswer(ctx, userID, questionID, option)
	r := domain.Reply{UserID: userID, ReplaceOriginal: true}
	if errors.Is(err, domain.ErrQuestionNotFound) {
		s.metrics.Answer("missing")
		r.Text = "❌ " + s.text(ctx, userID, MsgQuestionNotFound)
		return r
	}
	if err != nil {
		s.log(ctx).Error().Err(err).Str("user_id", userID).Str("question_id", questionID).Msg("failed to save answer")
	} else {
		s.log(ctx).Debug().Str("user_id", userID).Str("question_id", result.QuestionID).
			Bool("correct", result.Correct).Int("score", result.TotalScore).Msg("answer recorded")
	}

	if result.Correct {
		s.metrics.Answer("correct")
		r.Text = s.text(ctx, userID, MsgCorrect) + "\n\n" + result.Explanation
	} else {
		s.metrics.Answer("wrong")
		r.Text = s.text(ctx, userID, MsgWrong) + " " + result.CorrectAnswer + "\n\n" + result.Explanation
	}
	return r
}

// ToggleLanguage switches between English and Persian and confirms in the new language.
func (s *BotService) ToggleLanguage(ctx context.Context, userID string) domain.Reply {
	if _, err := s.localizer.ToggleLanguage(ctx, userID); err != nil {
		s.log(ctx).Error().Err(err).Str("user_id", userID).Msg("failed to save language")
	}
	return s.reply(userID, s.text(ctx, userID, MsgLangSet))
}

func (s *BotService) UpgradePrompt(ctx context.Context, userID string) domain.Reply {
	return s.reply(userID, s.text(ctx, userID, MsgUpgrade))
}

// UnknownCommand answers commands the bot does not handle.
func (s *BotService) UnknownCommand(ctx context.Context, userID string) domain.Reply {
	return s.reply(userID, s.text(ctx, userID, MsgUnknownCommand))
}

// PaymentNotification grants premium to the user registered under payerEmail.
// domain.ErrNoPaymentMatch is informational; callers acknowledge the payment anyway.
// The granted user is notified on a best-effort basis.
func (s *BotService) PaymentNotification(ctx context.Context, payerEmail string, amount decimal.Decimal) (domain.PremiumEntry, error) {
	entry, err := s.payments.MatchAndGrant(ctx, payerEmail, amount)
	if err != nil {
		s.metrics.Payment(false)
		if errors.Is(err, domain.ErrNoPaymentMatch) {
			s.log(ctx).Info().Str("email", payerEmail).Str("amount", amount.String()).Msg("payment without registered user")
		} else {
			s.log(ctx).Error().Err(err).Str("email", payerEmail).Msg("failed to grant premium")
		}
		return entry, err
	}
	s.metrics.Payment(true)
	s.log(ctx).Info().Str("user_id", entry.UserID).Str("amount", amount.String()).Msg("premium granted")

	if s.messenger != nil {
		if err := s.messenger.Send(ctx, entry.UserID, s.text(ctx, entry.UserID, MsgPremiumGranted)); err != nil {
			s.log(ctx).Warn().Err(err).Str("user_id", entry.UserID).Msg("premium notification not delivered")
		}
	}
	return entry, nil
}

// FormatUserID converts a transport numeric id into the key used in documents.
func FormatUserID(id int64) string {
	return strconv.FormatInt(id, 10)
}
