package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// QuestionID accepts both string and numeric ids from the quiz bank.
type QuestionID string

func (id *QuestionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = QuestionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("question id: %w", err)
	}
	*id = QuestionID(n.String())
	return nil
}

// LocalizedText is either a plain string (same for every language) or a language map.
type LocalizedText map[string]string

func (t *LocalizedText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = LocalizedText{DefaultLang: s}
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("localized text: %w", err)
	}
	*t = m
	return nil
}

// For returns the value for lang, or the DefaultLang value when lang is missing.
func (t LocalizedText) For(lang string) string {
	if v, ok := t[lang]; ok {
		return v
	}
	return t[DefaultLang]
}

// LocalizedOptions is either a plain option list or a language map of option lists.
type LocalizedOptions map[string][]string

func (o *LocalizedOptions) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*o = LocalizedOptions{DefaultLang: list}
		return nil
	}
	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("localized options: %w", err)
	}
	*o = m
	return nil
}

// For returns the option list for lang, or the DefaultLang list when lang is missing.
func (o LocalizedOptions) For(lang string) []string {
	if v, ok := o[lang]; ok {
		return v
	}
	return o[DefaultLang]
}
