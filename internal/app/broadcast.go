package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/FoadGhasemi/CodeSpark/internal/domain"
	"github.com/FoadGhasemi/CodeSpark/internal/metrics"
)

var errNoMessenger = errors.New("no messenger configured")

// Messenger delivers plain text to a user outside of a request/reply cycle.
type Messenger interface {
	Send(ctx context.Context, userID, text string) error
}

// Broadcaster fans an administrator message out to every known user.
type Broadcaster struct {
	adminID   string
	scores    *ScoreLedger
	messenger Messenger
	timeout   time.Duration
	metrics   *metrics.Recorder
	logger    zerolog.Logger
}

func newBroadcaster(adminID string, scores *ScoreLedger, messenger Messenger, timeout time.Duration, rec *metrics.Recorder, logger zerolog.Logger) *Broadcaster {
	if rec == nil {
		rec = metrics.Nop()
	}
	return &Broadcaster{
		adminID:   adminID,
		scores:    scores,
		messenger: messenger,
		timeout:   timeout,
		metrics:   rec,
		logger:    logger.With().Str("component", "broadcast").Logger(),
	}
}

// IsAdmin reports whether senderID is the configured administrator.
func (b *Broadcaster) IsAdmin(senderID string) bool {
	return b.adminID != "" && senderID == b.adminID
}

// Broadcast sends message to every user in the score ledger, sequentially and in
// id order. A failed send is recorded in the report and does not stop the rest.
// Senders other than the administrator get domain.ErrUnauthorized and nothing is sent.
func (b *Broadcaster) Broadcast(ctx context.Context, senderID, message string) (domain.DeliveryReport, error) {
	if !b.IsAdmin(senderID) {
		return domain.DeliveryReport{}, domain.ErrUnauthorized
	}

	report := domain.DeliveryReport{ID: uuid.NewString()}
	for _, userID := range b.scores.UserIDs(ctx) {
		if err := b.send(ctx, userID, message); err != nil {
			report.Failed = append(report.Failed, domain.DeliveryFailure{UserID: userID, Reason: err.Error()})
			b.metrics.Delivery(false)
			b.logger.Debug().Err(err).Str("report_id", report.ID).Str("user_id", userID).Msg("broadcast delivery failed")
			continue
		}
		report.Delivered = append(report.Delivered, userID)
		b.metrics.Delivery(true)
	}

	b.logger.Info().
		Str("report_id", report.ID).
		Int("delivered", len(report.Delivered)).
		Int("failed", len(report.Failed)).
		Msg("broadcast finished")
	return report, nil
}

func (b *Broadcaster) send(ctx context.Context, userID, message string) error {
	if b.messenger == nil {
		return errNoMessenger
	}
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	return b.messenger.Send(ctx, userID, message)
}
