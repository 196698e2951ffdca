package autocomplete

import (
	"nearby/models"
	"nearby/pkg/location"
)

// Action is what selecting a location row asks the caller to do.
type Action int

const (
	ActionNone Action = iota
	// ActionUseLocation sets the coordinate and address, closes the panel
	// and searches.
	ActionUseLocation
	// ActionLocate starts device acquisition.
	ActionLocate
	// ActionAddSaved hands the label to the save-address flow.
	ActionAddSaved
)

func (a Action) String() string {
	switch a {
	case ActionUseLocation:
		return "use_location"
	case ActionLocate:
		return "locate"
	case ActionAddSaved:
		return "add_saved"
	}
	return "none"
}

// Selection is the decoded intent of a selected row.
type Selection struct {
	Action     Action
	Coordinate models.Coordinate
	Address    string
	Label      string
}

// Select maps a selected suggestion onto an action. Rows without a usable
// payload, and error rows, are inert.
func Select(s models.Suggestion) Selection {
	switch s.Type {
	case models.SuggestionLocation:
		switch p := s.Payload.(type) {
		case location.Place:
			return useLocation(p.Coordinate(), addressOf(p.Title, p.Subtitle))
		case *location.Place:
			if p != nil {
				return useLocation(p.Coordinate(), addressOf(p.Title, p.Subtitle))
			}
		}
	case models.SuggestionSaved:
		switch p := s.Payload.(type) {
		case models.SavedLocation:
			return useLocation(p.Coordinate, p.Address)
		case *models.SavedLocation:
			if p != nil {
				return useLocation(p.Coordinate, p.Address)
			}
		}
	case models.SuggestionCurrent:
		return Selection{Action: ActionLocate}
	case models.SuggestionAddSaved:
		label, _ := s.Payload.(string)
		return Selection{Action: ActionAddSaved, Label: label}
	}
	return Selection{Action: ActionNone}
}

func useLocation(c models.Coordinate, address string) Selection {
	return Selection{Action: ActionUseLocation, Coordinate: c, Address: address}
}

func addressOf(title, subtitle string) string {
	if subtitle == "" {
		return title
	}
	return title + ", " + subtitle
}
