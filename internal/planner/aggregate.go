package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atlas-cloud/tripdex/internal/domain"
)

// Section limits for the aggregated context block.
const (
	maxAttractionsInContext = 10
	maxFoodInContext        = 10
	maxTipsInContext        = 5
	maxItinerariesInContext = 3
	itineraryExcerptRunes   = 200
)

// BuildContext formats the merged retrieval results into a single ordered
// text block for the downstream generator. It is deterministic and
// side-effect-free: fixed section order, sections with zero documents omitted
// entirely, scores rendered with two decimals.
func BuildContext(
	attractions, food, tips, itineraries []domain.Document,
	prefs domain.UserPreferences,
) string {
	var sections []string

	group := prefs.GroupType
	if group == "" {
		group = "N/A"
	}
	sections = append(sections,
		"## Trip Planning Context\n",
		fmt.Sprintf("Destinations: %s", strings.Join(prefs.Destinations, ", ")),
		fmt.Sprintf("Duration: %d days", prefs.DurationDays()),
		fmt.Sprintf("Budget: %s", prefs.Budget),
		fmt.Sprintf("Group: %s\n", group),
	)

	if len(attractions) > 0 {
		sections = append(sections, "## Available Attractions")
		for i, doc := range top(attractions, maxAttractionsInContext) {
			sections = append(sections,
				fmt.Sprintf("%d. %s", i+1, doc.Text),
				fmt.Sprintf("   Score: %.2f", doc.Score),
				fmt.Sprintf("   Metadata: %s\n", marshalMetadata(doc.Metadata)),
			)
		}
	}

	if len(food) > 0 {
		sections = append(sections, "## Food Options")
		for i, doc := range top(food, maxFoodInContext) {
			sections = append(sections,
				fmt.Sprintf("%d. %s", i+1, doc.Text),
				fmt.Sprintf("   Score: %.2f\n", doc.Score),
			)
		}
	}

	if len(tips) > 0 {
		sections = append(sections, "## Local Tips & Advice")
		for _, doc := range top(tips, maxTipsInContext) {
			sections = append(sections, fmt.Sprintf("- %s\n", doc.Text))
		}
	}

	if len(itineraries) > 0 {
		sections = append(sections, "## Similar Past Itineraries")
		for i, doc := range top(itineraries, maxItinerariesInContext) {
			sections = append(sections,
				fmt.Sprintf("%d. %s...\n", i+1, truncateRunes(doc.Text, itineraryExcerptRunes)),
			)
		}
	}

	return strings.Join(sections, "\n")
}

func top(docs []domain.Document, n int) []domain.Document {
	if len(docs) > n {
		return docs[:n]
	}
	return docs
}

// marshalMetadata renders metadata as JSON. Go sorts map keys, so the output
// is deterministic for equal metadata.
func marshalMetadata(meta domain.Metadata) string {
	data, err := json.Marshal(meta)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
