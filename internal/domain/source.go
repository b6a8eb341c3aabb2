package domain

// Source identifies an independent knowledge category with its own index and
// filter policy.
type Source string

// Knowledge sources.
const (
	SourceAttractions Source = "attractions"
	SourceFood        Source = "food"
	SourceTips        Source = "tips"
	SourceItineraries Source = "itineraries"
)

// Sources returns all knowledge sources in their canonical order.
func Sources() []Source {
	return []Source{SourceAttractions, SourceFood, SourceTips, SourceItineraries}
}

// Valid reports whether the source is a known knowledge category.
func (s Source) Valid() bool {
	switch s {
	case SourceAttractions, SourceFood, SourceTips, SourceItineraries:
		return true
	}
	return false
}
