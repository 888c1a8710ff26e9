package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/FoadGhasemi/CodeSpark/internal/domain"
)

// PaymentMatcher turns a payment notification into a premium grant.
type PaymentMatcher struct {
	emails  *EmailRegistry
	premium *PremiumLedger
}

func newPaymentMatcher(emails *EmailRegistry, premium *PremiumLedger) *PaymentMatcher {
	return &PaymentMatcher{emails: emails, premium: premium}
}

// MatchAndGrant grants premium to the user who registered email. When several
// users claimed the same email only the lowest user id is granted.
func (m *PaymentMatcher) MatchAndGrant(ctx context.Context, email string, amount decimal.Decimal) (domain.PremiumEntry, error) {
	candidates := m.emails.Lookup(ctx, email)
	if len(candidates) == 0 {
		return domain.PremiumEntry{}, domain.ErrNoPaymentMatch
	}
	return m.premium.Grant(ctx, candidates[0], email, amount)
}
