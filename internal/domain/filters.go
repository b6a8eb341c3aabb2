package domain

// SourceFilter is a pure predicate over document metadata. Implementations
// must never fail: absent metadata keys fall back to a neutral default, and a
// filter field left at its zero value imposes no constraint.
type SourceFilter interface {
	Match(meta Metadata) bool
}

// AttractionFilter filters attraction documents. All present fields must hold
// for a document to survive.
type AttractionFilter struct {
	// MaxPrice rejects documents whose admission fee exceeds the bound.
	MaxPrice *float64 `json:"max_price,omitempty"`
	// Categories restricts the metadata category to the given set.
	Categories []string `json:"categories,omitempty"`
	// RequiredTags must all be present in the document's tags.
	RequiredTags []string `json:"required_tags,omitempty"`
	// ExcludedTags must none be present in the document's tags.
	ExcludedTags []string `json:"excluded_tags,omitempty"`
}

// Match implements SourceFilter.
func (f AttractionFilter) Match(meta Metadata) bool {
	if f.MaxPrice != nil {
		fee, ok := meta.Number("admission_fee")
		if !ok {
			fee = 0 // free unless stated otherwise
		}
		if fee > *f.MaxPrice {
			return false
		}
	}

	if len(f.Categories) > 0 {
		category, _ := meta.String("category")
		if !contains(f.Categories, category) {
			return false
		}
	}

	tags := meta.Strings("tags")
	for _, required := range f.RequiredTags {
		if !contains(tags, required) {
			return false
		}
	}
	for _, excluded := range f.ExcludedTags {
		if contains(tags, excluded) {
			return false
		}
	}

	return true
}

// FoodFilter filters food-place documents. Dietary and cuisine matching is
// disjunctive: one overlap with the document's options is enough.
type FoodFilter struct {
	DietaryRestrictions []DietaryRestriction `json:"dietary_restrictions,omitempty"`
	// Budget excludes price bands: BudgetLow drops the most expensive band,
	// BudgetLuxury drops the cheapest. Empty imposes no constraint.
	Budget   BudgetLevel `json:"budget_level,omitempty"`
	Cuisines []string    `json:"cuisines,omitempty"`
}

// Match implements SourceFilter.
func (f FoodFilter) Match(meta Metadata) bool {
	if len(f.DietaryRestrictions) > 0 {
		options := meta.Strings("dietary_options")
		found := false
		for _, d := range f.DietaryRestrictions {
			if contains(options, string(d)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.Budget != "" {
		priceRange, ok := meta.String("price_range")
		if !ok {
			priceRange = "€€" // mid-range unless stated otherwise
		}
		switch f.Budget {
		case BudgetLow:
			if priceRange != "€" && priceRange != "€€" {
				return false
			}
		case BudgetLuxury:
			if priceRange == "€" {
				return false
			}
		}
	}

	if len(f.Cuisines) > 0 {
		cuisines := meta.Strings("cuisine")
		found := false
		for _, c := range f.Cuisines {
			if contains(cuisines, c) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// ItineraryFilter filters past-itinerary documents.
type ItineraryFilter struct {
	// Destination requires an exact metadata match.
	Destination string `json:"destination,omitempty"`
	// DurationDays matches itineraries within ±1 day of the target.
	DurationDays *int `json:"duration_days,omitempty"`
}

// Match implements SourceFilter.
func (f ItineraryFilter) Match(meta Metadata) bool {
	if f.Destination != "" {
		destination, _ := meta.String("destination")
		if destination != f.Destination {
			return false
		}
	}

	if f.DurationDays != nil {
		duration, _ := meta.Number("duration_days")
		diff := duration - float64(*f.DurationDays)
		if diff < -1 || diff > 1 {
			return false
		}
	}

	return true
}

// TipsFilter imposes no structural constraints; tips rely solely on
// similarity ranking.
type TipsFilter struct{}

// Match implements SourceFilter.
func (TipsFilter) Match(Metadata) bool { return true }

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
