package models

// SuggestionType discriminates the entries of a suggestion list.
type SuggestionType string

const (
	SuggestionAll      SuggestionType = "all"
	SuggestionHeader   SuggestionType = "header"
	SuggestionCategory SuggestionType = "category"
	SuggestionService  SuggestionType = "service"
	SuggestionSalon    SuggestionType = "salon"
	SuggestionLocation SuggestionType = "location"
	SuggestionSaved    SuggestionType = "saved"
	SuggestionAddSaved SuggestionType = "add-saved"
	SuggestionCurrent  SuggestionType = "current"
	SuggestionError    SuggestionType = "error"
)

// Scored reports whether suggestions of this type carry a relevance score.
func (t SuggestionType) Scored() bool {
	switch t {
	case SuggestionCategory, SuggestionService, SuggestionSalon:
		return true
	}
	return false
}

// Suggestion is one row of an autocomplete panel. Score is nil for
// structural entries (headers, "all", saved locations, errors).
type Suggestion struct {
	Type     SuggestionType `json:"type"`
	ID       string         `json:"id,omitempty"`
	Title    string         `json:"title,omitempty"`
	Subtitle string         `json:"subtitle,omitempty"`
	Score    *int           `json:"relevance_score,omitempty"`
	Payload  any            `json:"payload,omitempty"`
}

// Scored builds a suggestion carrying a relevance score.
func Scored(t SuggestionType, id, title, subtitle string, score int, payload any) Suggestion {
	return Suggestion{Type: t, ID: id, Title: title, Subtitle: subtitle, Score: &score, Payload: payload}
}

// RelevanceScore returns the score or zero for unscored suggestions.
func (s Suggestion) RelevanceScore() int {
	if s.Score == nil {
		return 0
	}
	return *s.Score
}

// CategoryRef identifies a selected category.
type CategoryRef struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
