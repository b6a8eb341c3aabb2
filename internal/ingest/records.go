package ingest

import (
	"fmt"
	"strings"

	"github.com/atlas-cloud/tripdex/internal/domain"
)

// Coordinates is a geographic point carried through to metadata unchanged.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// AttractionRecord is one entry of the attractions record file.
type AttractionRecord struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	Category        string      `json:"category"`
	Tags            []string    `json:"tags"`
	AdmissionFee    float64     `json:"admission_fee"`
	DurationMinutes int         `json:"duration_minutes"`
	Coordinates     Coordinates `json:"coordinates"`
}

// SearchText builds the text indexed for similarity search.
func (r AttractionRecord) SearchText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s. %s ", r.Name, r.Description)
	fmt.Fprintf(&b, "Category: %s. ", r.Category)
	if len(r.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s. ", strings.Join(r.Tags, ", "))
	}
	return b.String()
}

// Metadata builds the filterable metadata record.
func (r AttractionRecord) Metadata() domain.Metadata {
	duration := r.DurationMinutes
	if duration == 0 {
		duration = 60
	}
	return domain.Metadata{
		"id":               r.ID,
		"name":             r.Name,
		"category":         r.Category,
		"admission_fee":    r.AdmissionFee,
		"duration_minutes": duration,
		"tags":             r.Tags,
		"coordinates":      r.Coordinates,
	}
}

// FoodRecord is one entry of the food record file.
type FoodRecord struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Description      string      `json:"description"`
	Cuisine          []string    `json:"cuisine"`
	DietaryOptions   []string    `json:"dietary_options"`
	PriceRange       string      `json:"price_range"`
	AvgCostPerPerson float64     `json:"avg_cost_per_person"`
	Coordinates      Coordinates `json:"coordinates"`
}

func (r FoodRecord) priceRange() string {
	if r.PriceRange == "" {
		return "€€"
	}
	return r.PriceRange
}

// SearchText builds the text indexed for similarity search.
func (r FoodRecord) SearchText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s. %s ", r.Name, r.Description)
	fmt.Fprintf(&b, "Cuisine: %s. ", strings.Join(r.Cuisine, ", "))
	fmt.Fprintf(&b, "Dietary options: %s. ", strings.Join(r.DietaryOptions, ", "))
	fmt.Fprintf(&b, "Price range: %s.", r.priceRange())
	return b.String()
}

// Metadata builds the filterable metadata record.
func (r FoodRecord) Metadata() domain.Metadata {
	avgCost := r.AvgCostPerPerson
	if avgCost == 0 {
		avgCost = 15.0
	}
	return domain.Metadata{
		"id":                  r.ID,
		"name":                r.Name,
		"cuisine":             r.Cuisine,
		"dietary_options":     r.DietaryOptions,
		"price_range":         r.priceRange(),
		"avg_cost_per_person": avgCost,
		"coordinates":         r.Coordinates,
	}
}

// TipRecord is one entry of the tips record file. Tips carry no filterable
// structure beyond a loose category label; retrieval is similarity-only.
type TipRecord struct {
	ID       string `json:"id"`
	Tip      string `json:"tip"`
	Category string `json:"category"`
}

// SearchText returns the tip text itself.
func (r TipRecord) SearchText() string { return r.Tip }

// Metadata builds the metadata record.
func (r TipRecord) Metadata() domain.Metadata {
	return domain.Metadata{
		"id":       r.ID,
		"category": r.Category,
	}
}

// ItineraryRecord is one entry of the past-itineraries record file.
type ItineraryRecord struct {
	ID           string `json:"id"`
	Destination  string `json:"destination"`
	DurationDays int    `json:"duration_days"`
	Summary      string `json:"summary"`
}

// SearchText builds the text indexed for similarity search.
func (r ItineraryRecord) SearchText() string {
	return fmt.Sprintf("%d day itinerary for %s. %s", r.DurationDays, r.Destination, r.Summary)
}

// Metadata builds the filterable metadata record.
func (r ItineraryRecord) Metadata() domain.Metadata {
	return domain.Metadata{
		"id":            r.ID,
		"destination":   r.Destination,
		"duration_days": r.DurationDays,
	}
}
