package domain

// ParsedIntent is the normalized view of user preferences produced by intent
// analysis.
type ParsedIntent struct {
	Destinations []string             `json:"destinations"`
	DurationDays int                  `json:"duration_days"`
	Budget       BudgetLevel          `json:"budget_level"`
	DietaryNeeds []DietaryRestriction `json:"dietary_needs,omitempty"`
	Interests    []string             `json:"interests,omitempty"`
	Avoid        []string             `json:"avoid,omitempty"`
	Pace         Pace                 `json:"pace,omitempty"`
	Walkable     bool                 `json:"walkable"`
	GroupType    string               `json:"group_type,omitempty"`
}

// RetrievalStrategy decides which knowledge sources to query, with which
// filters, and which concerns to weight. Priority is advisory only; nothing
// enforces it structurally.
type RetrievalStrategy struct {
	Sources  []Source                `json:"sources"`
	Filters  map[Source]SourceFilter `json:"filters"`
	Priority []string                `json:"priority,omitempty"`
}

// FilterFor returns the filter configured for the source, or nil.
func (s RetrievalStrategy) FilterFor(source Source) SourceFilter {
	if s.Filters == nil {
		return nil
	}
	return s.Filters[source]
}
