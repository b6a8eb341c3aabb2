package domain

// PlannerState is the single record threaded through the planning workflow.
// Fields are nil/empty until the owning node produces them. Each workflow node
// writes only the fields it owns, and no two concurrently executing nodes own
// the same field; that disjointness is what makes the parallel fan-out
// merge-safe without locking.
type PlannerState struct {
	// Input, immutable for the whole run.
	Preferences UserPreferences `json:"user_preferences"`

	// Owned by the intent-analysis node.
	ParsedIntent *ParsedIntent      `json:"parsed_intent,omitempty"`
	Strategy     *RetrievalStrategy `json:"retrieval_strategy,omitempty"`

	// Owned by one retrieval node each.
	AttractionsContext []Document `json:"attractions_context,omitempty"`
	FoodContext        []Document `json:"food_context,omitempty"`
	TipsContext        []Document `json:"tips_context,omitempty"`
	ItineraryContext   []Document `json:"itinerary_context,omitempty"`

	// Owned by the aggregation node.
	AggregatedContext string `json:"aggregated_context,omitempty"`

	// Owned by the (pluggable) generation/validation stage.
	NeedsReplanning bool   `json:"needs_replanning,omitempty"`
	ReplanReason    string `json:"replan_reason,omitempty"`

	// Appended by the workflow engine after each wave joins; nodes never
	// write these directly.
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`

	// Incremented once per replanning cycle.
	IterationCount int `json:"iteration_count"`
}

// ContextFor returns the retrieved documents for the given source.
func (s *PlannerState) ContextFor(source Source) []Document {
	switch source {
	case SourceAttractions:
		return s.AttractionsContext
	case SourceFood:
		return s.FoodContext
	case SourceTips:
		return s.TipsContext
	case SourceItineraries:
		return s.ItineraryContext
	}
	return nil
}

// SetContextFor stores retrieved documents for the given source. Callers must
// respect node ownership: only the node owning the source's field may call
// this during parallel execution.
func (s *PlannerState) SetContextFor(source Source, docs []Document) {
	switch source {
	case SourceAttractions:
		s.AttractionsContext = docs
	case SourceFood:
		s.FoodContext = docs
	case SourceTips:
		s.TipsContext = docs
	case SourceItineraries:
		s.ItineraryContext = docs
	}
}
