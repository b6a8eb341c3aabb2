package retriever

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/atlas-cloud/tripdex/internal/domain"
)

// Coordinator holds exactly one retriever per knowledge source, resolved at
// construction time. The embedder is an explicit dependency shared by all
// retrievers.
type Coordinator struct {
	attractions *Retriever
	food        *Retriever
	tips        *Retriever
	itineraries *Retriever
	logger      *zap.Logger
}

// NewCoordinator builds the fixed retriever set.
func NewCoordinator(dim int, embed domain.Embedder, storeRoot string, logger *zap.Logger) (*Coordinator, error) {
	c := &Coordinator{logger: logger}

	targets := []struct {
		source domain.Source
		slot   **Retriever
	}{
		{domain.SourceAttractions, &c.attractions},
		{domain.SourceFood, &c.food},
		{domain.SourceTips, &c.tips},
		{domain.SourceItineraries, &c.itineraries},
	}
	for _, t := range targets {
		r, err := New(t.source, dim, embed, storeRoot, logger)
		if err != nil {
			return nil, err
		}
		*t.slot = r
	}

	return c, nil
}

// Retriever returns the retriever for the given source. An unknown source is
// a programming error, not a runtime condition.
func (c *Coordinator) Retriever(source domain.Source) (*Retriever, error) {
	switch source {
	case domain.SourceAttractions:
		return c.attractions, nil
	case domain.SourceFood:
		return c.food, nil
	case domain.SourceTips:
		return c.tips, nil
	case domain.SourceItineraries:
		return c.itineraries, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSource, source)
}

// Dispatch routes a retrieval to the source's retriever.
func (c *Coordinator) Dispatch(
	ctx context.Context, source domain.Source, query string, k int, filter domain.SourceFilter,
) ([]domain.Document, error) {
	r, err := c.Retriever(source)
	if err != nil {
		return nil, err
	}
	return r.Retrieve(ctx, query, k, filter)
}

// DocumentCounts reports the number of indexed documents per source.
func (c *Coordinator) DocumentCounts() map[domain.Source]int {
	return map[domain.Source]int{
		domain.SourceAttractions: c.attractions.Len(),
		domain.SourceFood:        c.food.Len(),
		domain.SourceTips:        c.tips.Len(),
		domain.SourceItineraries: c.itineraries.Len(),
	}
}

// LoadAll loads every category's persisted index. Failures are independent:
// one missing or corrupt index never blocks the others. The returned warnings
// describe each degraded category and seed PlannerState.Warnings for
// subsequent requests.
func (c *Coordinator) LoadAll() []string {
	var warnings []string

	for _, r := range []*Retriever{c.attractions, c.food, c.tips, c.itineraries} {
		err := r.Load()
		if err == nil {
			continue
		}
		if errors.Is(err, domain.ErrIndexNotFound) {
			warnings = append(warnings,
				fmt.Sprintf("%s index has no persisted data, serving empty results", r.Source()))
			continue
		}
		warnings = append(warnings,
			fmt.Sprintf("%s index could not be loaded, serving empty results", r.Source()))
	}

	return warnings
}
