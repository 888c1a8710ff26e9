package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/FoadGhasemi/CodeSpark/internal/domain"
	"github.com/FoadGhasemi/CodeSpark/internal/logging"
)

// PaymentNotifier grants premium for an incoming payment.
type PaymentNotifier interface {
	PaymentNotification(ctx context.Context, payerEmail string, amount decimal.Decimal) (domain.PremiumEntry, error)
}

type paymentPayload struct {
	PayerEmail string          `json:"payer_email"`
	Amount     json.RawMessage `json:"amount"`
}

// PaymentHandler accepts Buy Me a Coffee style notifications. Every well-formed
// notification is acknowledged with 200 so the provider does not retry, whether
// or not a user was matched.
type PaymentHandler struct {
	notifier PaymentNotifier
	logger   zerolog.Logger
}

func NewPaymentHandler(notifier PaymentNotifier, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{notifier: notifier, logger: logger.With().Str("component", "payment_webhook").Logger()}
}

func (h *PaymentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		RespondError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "use POST")
		return
	}

	var payload paymentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.Warn().Err(err).Msg("malformed payment payload")
		RespondError(w, http.StatusBadRequest, ErrCodeInvalidPayload, "body must be a JSON object")
		return
	}

	amount, err := domain.ParseAmount(payload.Amount)
	if err != nil {
		h.logger.Warn().Err(err).Str("amount", string(payload.Amount)).Msg("unparseable amount, recording zero")
		amount = decimal.Zero
	}

	// The payer email must match the registered one byte for byte.
	email := payload.PayerEmail
	ctx := logging.IntoContext(r.Context(), h.logger.With().Str("email", email).Logger())
	if _, err := h.notifier.PaymentNotification(ctx, email, amount); err != nil && !errors.Is(err, domain.ErrNoPaymentMatch) {
		h.logger.Error().Err(err).Str("email", email).Msg("payment not applied")
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
