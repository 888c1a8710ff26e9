package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FoadGhasemi/CodeSpark/internal/domain"
)

// PremiumLedger is the set of users entitled to premium questions.
type PremiumLedger struct {
	docs *documents
	name string
	now  func() time.Time
}

func newPremiumLedger(docs *documents, name string, now func() time.Time) *PremiumLedger {
	if now == nil {
		now = time.Now
	}
	return &PremiumLedger{docs: docs, name: name, now: now}
}

// IsPremium is a membership test on the premium document.
func (l *PremiumLedger) IsPremium(ctx context.Context, userID string) bool {
	_, ok := l.Get(ctx, userID)
	return ok
}

// Get returns the user's premium entry, if any.
func (l *PremiumLedger) Get(ctx context.Context, userID string) (domain.PremiumEntry, bool) {
	entries := loadMap[domain.PremiumEntry](ctx, l.docs, l.name)
	entry, ok := entries[userID]
	entry.UserID = userID
	return entry, ok
}

// Grant upserts the user's entry. Granting again overwrites email, amount and timestamp.
func (l *PremiumLedger) Grant(ctx context.Context, userID, email string, amount decimal.Decimal) (domain.PremiumEntry, error) {
	unlock := l.docs.lock(l.name)
	defer unlock()

	entries, err := loadMapForUpdate[domain.PremiumEntry](ctx, l.docs, l.name)
	if err != nil {
		return domain.PremiumEntry{}, err
	}
	entry := domain.PremiumEntry{
		UserID:    userID,
		Email:     email,
		Amount:    amount,
		GrantedAt: l.now().UTC(),
	}
	entries[userID] = entry
	if err := saveDocument(ctx, l.docs, l.name, entries); err != nil {
		return domain.PremiumEntry{}, err
	}
	return entry, nil
}
