package retriever

import (
	"fmt"
	"strings"

	"github.com/atlas-cloud/tripdex/internal/domain"
)

// BuildQuery constructs the natural-language search query for a knowledge
// source. Construction is deterministic: the same preferences always produce
// the same query string, and therefore the same embedding.
func BuildQuery(source domain.Source, prefs domain.UserPreferences) string {
	destination := strings.Join(prefs.Destinations, ", ")

	switch source {
	case domain.SourceAttractions:
		interests := "popular attractions"
		if len(prefs.Interests) > 0 {
			interests = strings.Join(prefs.Interests, ", ")
		}
		return fmt.Sprintf("%s %s places to visit", destination, interests)

	case domain.SourceFood:
		dietary := make([]string, len(prefs.DietaryRestrictions))
		for i, d := range prefs.DietaryRestrictions {
			dietary[i] = string(d)
		}
		return fmt.Sprintf("%s %s %s restaurants", destination, prefs.Budget, strings.Join(dietary, ", "))

	case domain.SourceTips:
		return fmt.Sprintf("%s travel tips local advice best time to visit", destination)

	case domain.SourceItineraries:
		return fmt.Sprintf("%s %d day itinerary %s", destination, prefs.DurationDays(), prefs.Budget)
	}

	return destination
}
