package app

import (
	"context"

	"github.com/FoadGhasemi/CodeSpark/internal/domain"
)

// Localizer resolves message keys into the user's preferred language.
type Localizer struct {
	docs      *documents
	languages string
	messages  string
}

func newLocalizer(docs *documents, names DocumentNames) *Localizer {
	return &Localizer{docs: docs, languages: names.Languages, messages: names.Messages}
}

// Language returns the user's stored language code, or domain.DefaultLang.
func (l *Localizer) Language(ctx context.Context, userID string) string {
	langs := loadMap[string](ctx, l.docs, l.languages)
	if lang, ok := langs[userID]; ok && lang != "" {
		return lang
	}
	return domain.DefaultLang
}

// Resolve returns the message for key in the user's language.
func (l *Localizer) Resolve(ctx context.Context, userID, key string) string {
	return l.Translate(ctx, l.Language(ctx, userID), key)
}

// Translate looks key up for lang. An unknown key is echoed back verbatim and
// a missing translation falls back to domain.DefaultLang.
func (l *Localizer) Translate(ctx context.Context, lang, key string) string {
	table := loadDocument[domain.MessageTable](ctx, l.docs, l.messages)
	return lookupMessage(table, lang, key)
}

func lookupMessage(table domain.MessageTable, lang, key string) string {
	variants, ok := table[key]
	if !ok {
		return key
	}
	if msg, ok := variants[lang]; ok {
		return msg
	}
	if msg, ok := variants[domain.DefaultLang]; ok {
		return msg
	}
	return key
}

// ToggleLanguage flips between the two supported languages and persists the result.
// "en" becomes "fa"; anything else becomes "en".
func (l *Localizer) ToggleLanguage(ctx context.Context, userID string) (string, error) {
	unlock := l.docs.lock(l.languages)
	defer unlock()

	langs, err := loadMapForUpdate[string](ctx, l.docs, l.languages)
	if err != nil {
		return domain.DefaultLang, err
	}
	current, ok := langs[userID]
	if !ok || current == "" {
		current = domain.DefaultLang
	}
	next := domain.LangEnglish
	if current == domain.LangEnglish {
		next = domain.LangPersian
	}
	langs[userID] = next
	if err := saveDocument(ctx, l.docs, l.languages, langs); err != nil {
		return current, err
	}
	return next, nil
}
