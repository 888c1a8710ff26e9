package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/FoadGhasemi/CodeSpark/internal/app"
	"github.com/FoadGhasemi/CodeSpark/internal/domain"
	"github.com/FoadGhasemi/CodeSpark/internal/logging"
)

const defaultWorkers = 8

// Bot routes Telegram updates to the bot service. Updates from the same user
// are handled in arrival order; different users are served concurrently.
type Bot struct {
	client  *Client
	service *app.BotService
	logger  zerolog.Logger
	workers int
}

func NewBot(client *Client, service *app.BotService, workers int, logger zerolog.Logger) *Bot {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Bot{
		client:  client,
		service: service,
		logger:  logger.With().Str("component", "bot").Logger(),
		workers: workers,
	}
}

// Run long-polls Telegram until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.client.api.GetUpdatesChan(u)
	b.logger.Info().Int("workers", b.workers).Msg("polling for updates")

	return b.dispatch(ctx, updates, b.client.api.StopReceivingUpdates)
}

// RunWebhook processes updates fed by WebhookHandler until ctx is cancelled.
func (b *Bot) RunWebhook(ctx context.Context, updates <-chan tgbotapi.Update) error {
	b.logger.Info().Int("workers", b.workers).Msg("waiting for webhook updates")
	return b.dispatch(ctx, updates, func() {})
}

func (b *Bot) dispatch(ctx context.Context, updates <-chan tgbotapi.Update, stop func()) error {
	shards := make([]chan tgbotapi.Update, b.workers)
	var wg sync.WaitGroup
	for i := range shards {
		shards[i] = make(chan tgbotapi.Update, 100)
		wg.Add(1)
		go func(in <-chan tgbotapi.Update) {
			defer wg.Done()
			for update := range in {
				b.HandleUpdate(ctx, update)
			}
		}(shards[i])
	}
	defer func() {
		for _, ch := range shards {
			close(ch)
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			stop()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			idx := senderID(update) % int64(len(shards))
			if idx < 0 {
				idx = -idx
			}
			select {
			case shards[idx] <- update:
			case <-ctx.Done():
				stop()
				return nil
			}
		}
	}
}

func senderID(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	}
	return 0
}

// HandleUpdate processes a single update. Panics are logged and swallowed so
// one bad update cannot stop the worker.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	logger := b.logger.With().Int("update_id", update.UpdateID).Logger()
	ctx = logging.IntoContext(ctx, logger)
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("panic in update handler")
		}
	}()

	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || !msg.IsCommand() {
		return
	}
	userID := app.FormatUserID(msg.From.ID)

	var reply domain.Reply
	switch msg.Command() {
	case "start":
		reply = b.service.Start(ctx, userID)
	case "help":
		reply = b.service.Help(ctx, userID)
	case "quiz":
		reply = b.service.RequestQuiz(ctx, userID)
	case "score":
		reply = b.service.RequestScore(ctx, userID)
	case "setemail":
		reply = b.service.RegisterEmail(ctx, userID, msg.CommandArguments())
	case "broadcast":
		r, ok := b.service.AdminBroadcast(ctx, userID, msg.CommandArguments())
		if !ok {
			b.logger.Warn().Str("user_id", userID).Msg("broadcast attempt by non-admin")
			return
		}
		reply = r
	default:
		reply = b.service.UnknownCommand(ctx, userID)
	}
	chatID := msg.From.ID
	if msg.Chat != nil {
		chatID = msg.Chat.ID
	}
	b.deliver(ctx, chatID, 0, reply)
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	b.client.AnswerCallback(query.ID)
	if query.From == nil {
		return
	}
	userID := app.FormatUserID(query.From.ID)

	cb, ok := parseCallback(query.Data)
	if !ok {
		b.logger.Warn().Str("user_id", userID).Str("data", query.Data).Msg("unknown callback data")
		return
	}

	chatID := query.From.ID
	messageID := 0
	if query.Message != nil {
		if query.Message.Chat != nil {
			chatID = query.Message.Chat.ID
		}
		messageID = query.Message.MessageID
	}

	var reply domain.Reply
	switch cb.kind {
	case callbackAnswer:
		reply = b.service.SubmitAnswer(ctx, userID, cb.questionID, cb.option)
	case callbackChangeLang:
		reply = b.service.ToggleLanguage(ctx, userID)
	case callbackUpgrade:
		reply = b.service.UpgradePrompt(ctx, userID)
	}
	b.deliver(ctx, chatID, messageID, reply)
}

func (b *Bot) deliver(ctx context.Context, chatID int64, messageID int, reply domain.Reply) {
	if err := b.client.Deliver(ctx, chatID, messageID, reply); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to deliver reply")
	}
}

// WebhookHandler decodes pushed updates and forwards them to out.
func WebhookHandler(out chan<- tgbotapi.Update, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			logger.Warn().Err(err).Msg("malformed telegram update")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		select {
		case out <- update:
			w.WriteHeader(http.StatusOK)
		case <-r.Context().Done():
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})
}
