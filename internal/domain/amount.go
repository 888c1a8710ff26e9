package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount decodes a payment amount sent as a JSON number or numeric string.
// Absent, null and empty values are treated as zero.
func ParseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, nil
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero, fmt.Errorf("amount: %w", err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return decimal.Zero, nil
		}
	}
	amount, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", text, err)
	}
	return amount, nil
}
