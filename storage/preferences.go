package storage

import (
	"encoding/json"
	"fmt"

	"hn-sentiment/thread"
)

const preferencesKey = "preferences"

// Preferences are the user's display and model choices.
type Preferences struct {
	Model         string          `json:"model"`
	ShowSummary   bool            `json:"showSummary"`
	ShowKeywords  bool            `json:"showKeywords"`
	ShowSentiment bool            `json:"showSentiment"`
	SortMode      thread.SortMode `json:"sortMode"`
}

// DefaultPreferences shows everything in thread order.
func DefaultPreferences(model string) Preferences {
	return Preferences{
		Model:         model,
		ShowSummary:   true,
		ShowKeywords:  true,
		ShowSentiment: true,
		SortMode:      thread.SortDefault,
	}
}

// LoadPreferences returns the saved preferences merged over the defaults.
func (s *Store) LoadPreferences(defaultModel string) (Preferences, error) {
	prefs := DefaultPreferences(defaultModel)
	raw, err := s.GetSetting(preferencesKey)
	if err != nil {
		return prefs, err
	}
	if raw == "" {
		return prefs, nil
	}
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return DefaultPreferences(defaultModel), fmt.Errorf("storage: decode preferences: %w", err)
	}
	if prefs.Model == "" {
		prefs.Model = defaultModel
	}
	mode, err := thread.ParseSortMode(string(prefs.SortMode))
	if err != nil {
		mode = thread.SortDefault
	}
	prefs.SortMode = mode
	return prefs, nil
}

// SavePreferences stores prefs under the preferences setting.
func (s *Store) SavePreferences(prefs Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("storage: encode preferences: %w", err)
	}
	return s.SetSetting(preferencesKey, string(data))
}
