// Package suggest builds the query-panel suggestion list: a fixed browse
// list for empty input, and a merged, scored list from categories,
// services and providers for free text.
package suggest

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"nearby/models"
	"nearby/pkg/catalog"
)

const (
	// MaxSuggestions caps the merged list.
	MaxSuggestions = 8
	// MaxServiceSuggestions caps the service pass before the merge.
	MaxServiceSuggestions = 5
	// MaxSalonSuggestions is the number of providers requested.
	MaxSalonSuggestions = 3
)

// Scores per match kind.
const (
	scoreCategoryExact     = 100
	scoreCategoryPrefix    = 90
	scoreCategorySubstring = 70

	scoreServiceNamePrefix    = 95
	scoreServiceNameSubstring = 85
	scoreServiceCategory      = 75
	scoreServiceOther         = 60

	scoreSalonName  = 80
	scoreSalonOther = 60
)

const (
	headerTopCategories = "Top categories"
	headerMoreServices  = "More services"
)

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EmptyQuery is the browse list shown before anything is typed.
func EmptyQuery(cats *catalog.Categories) []models.Suggestion {
	popular, rest := cats.Split()

	out := make([]models.Suggestion, 0, len(popular)+len(rest)+3)
	out = append(out, models.Suggestion{Type: models.SuggestionAll, ID: "all", Title: "All services"})
	out = append(out, models.Suggestion{Type: models.SuggestionHeader, ID: "header-top", Title: headerTopCategories})
	for _, c := range popular {
		out = append(out, categoryRow(c))
	}
	if len(rest) > 0 {
		out = append(out, models.Suggestion{Type: models.SuggestionHeader, ID: "header-more", Title: headerMoreServices})
		for _, c := range rest {
			out = append(out, categoryRow(c))
		}
	}
	return out
}

func categoryRow(c catalog.Category) models.Suggestion {
	return models.Suggestion{Type: models.SuggestionCategory, ID: c.ID, Title: c.Label, Payload: c.Ref()}
}

// CategoryPass matches q against category labels and IDs.
func CategoryPass(q string, cats []catalog.Category) []models.Suggestion {
	q = normalize(q)
	if q == "" {
		return nil
	}

	var out []models.Suggestion
	for _, c := range cats {
		label, id := normalize(c.Label), normalize(c.ID)
		if !strings.Contains(label, q) && !strings.Contains(id, q) {
			continue
		}
		score := scoreCategorySubstring
		switch {
		case label == q || id == q:
			score = scoreCategoryExact
		case strings.HasPrefix(label, q) || strings.HasPrefix(id, q):
			score = scoreCategoryPrefix
		}
		out = append(out, models.Scored(models.SuggestionCategory, c.ID, c.Label, "Category", score, c.Ref()))
	}
	return out
}

// ServicePass matches q against the local service catalog and keeps the
// best MaxServiceSuggestions.
func ServicePass(q string, services []catalog.Service) []models.Suggestion {
	q = normalize(q)
	if q == "" {
		return nil
	}

	var out []models.Suggestion
	for _, s := range services {
		name, category, desc := normalize(s.Name), normalize(s.Category), normalize(s.Description)
		var score int
		switch {
		case strings.HasPrefix(name, q):
			score = scoreServiceNamePrefix
		case strings.Contains(name, q):
			score = scoreServiceNameSubstring
		case strings.Contains(category, q):
			score = scoreServiceCategory
		case strings.Contains(desc, q):
			score = scoreServiceOther
		default:
			continue
		}
		out = append(out, models.Scored(models.SuggestionService, s.ID, s.Name, serviceSubtitle(s), score, s))
	}
	sortByScore(out)
	if len(out) > MaxServiceSuggestions {
		out = out[:MaxServiceSuggestions]
	}
	return out
}

func serviceSubtitle(s catalog.Service) string {
	parts := []string{}
	if s.Category != "" {
		parts = append(parts, s.Category)
	}
	if s.DurationMinutes > 0 {
		parts = append(parts, fmt.Sprintf("%d min", s.DurationMinutes))
	}
	if s.PriceInPaisa > 0 {
		parts = append(parts, fmt.Sprintf("₹%d", s.PriceInPaisa/100))
	}
	return strings.Join(parts, " · ")
}

// SalonPass scores provider search results.
func SalonPass(q string, salons []catalog.Salon) []models.Suggestion {
	q = normalize(q)
	if len(salons) > MaxSalonSuggestions {
		salons = salons[:MaxSalonSuggestions]
	}

	out := make([]models.Suggestion, 0, len(salons))
	for _, s := range salons {
		score := scoreSalonOther
		if q != "" && strings.Contains(normalize(s.Name), q) {
			score = scoreSalonName
		}
		out = append(out, models.Scored(models.SuggestionSalon, s.ID, s.Name, s.Address, score, s))
	}
	return out
}

// Merge concatenates the passes in order, sorts by score (ties keep pass
// order) and caps the list at MaxSuggestions.
func Merge(passes ...[]models.Suggestion) []models.Suggestion {
	var out []models.Suggestion
	for _, p := range passes {
		out = append(out, p...)
	}
	sortByScore(out)
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

func sortByScore(s []models.Suggestion) {
	slices.SortStableFunc(s, func(a, b models.Suggestion) int {
		return cmp.Compare(b.RelevanceScore(), a.RelevanceScore())
	})
}
