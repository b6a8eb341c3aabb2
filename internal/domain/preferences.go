package domain

import (
	"fmt"
	"time"
)

// BudgetLevel is the traveler's spending tier.
type BudgetLevel string

// Budget tiers.
const (
	BudgetLow      BudgetLevel = "budget"
	BudgetModerate BudgetLevel = "moderate"
	BudgetLuxury   BudgetLevel = "luxury"
)

// Valid reports whether the budget level is a known tier.
func (b BudgetLevel) Valid() bool {
	switch b {
	case BudgetLow, BudgetModerate, BudgetLuxury:
		return true
	}
	return false
}

// DietaryRestriction is a dietary requirement matched against a food place's
// advertised dietary options.
type DietaryRestriction string

// Dietary restrictions.
const (
	DietVegetarian DietaryRestriction = "vegetarian"
	DietVegan      DietaryRestriction = "vegan"
	DietGlutenFree DietaryRestriction = "gluten_free"
	DietHalal      DietaryRestriction = "halal"
	DietKosher     DietaryRestriction = "kosher"
	DietDairyFree  DietaryRestriction = "dairy_free"
)

// Pace is the desired intensity of the trip schedule.
type Pace string

// Trip paces.
const (
	PaceRelaxed  Pace = "relaxed"
	PaceModerate Pace = "moderate"
	PacePacked   Pace = "packed"
)

// UserPreferences describes a single planning request. It is constructed once
// per request and read-only afterwards.
type UserPreferences struct {
	Destinations        []string             `json:"destinations"`
	StartDate           time.Time            `json:"start_date"`
	EndDate             time.Time            `json:"end_date"`
	Budget              BudgetLevel          `json:"budget_level"`
	DietaryRestrictions []DietaryRestriction `json:"dietary_restrictions,omitempty"`
	Interests           []string             `json:"interests,omitempty"`
	Avoid               []string             `json:"avoid,omitempty"`
	Pace                Pace                 `json:"pace,omitempty"`
	WalkingPreference   bool                 `json:"walking_preference,omitempty"`
	GroupType           string               `json:"group_type,omitempty"`
}

// DurationDays returns the trip length in days, inclusive of both endpoints.
func (p UserPreferences) DurationDays() int {
	return int(p.EndDate.Sub(p.StartDate).Hours()/24) + 1
}

// Validate checks the preferences for internal consistency.
func (p UserPreferences) Validate() error {
	if len(p.Destinations) == 0 {
		return fmt.Errorf("%w: at least one destination is required", ErrInvalidPreferences)
	}
	if p.EndDate.Before(p.StartDate) {
		return fmt.Errorf("%w: end_date %s is before start_date %s",
			ErrInvalidPreferences, p.EndDate.Format("2006-01-02"), p.StartDate.Format("2006-01-02"))
	}
	if !p.Budget.Valid() {
		return fmt.Errorf("%w: unknown budget level %q", ErrInvalidPreferences, p.Budget)
	}
	return nil
}

// HasInterest reports whether the given interest is present.
func (p UserPreferences) HasInterest(interest string) bool {
	for _, i := range p.Interests {
		if i == interest {
			return true
		}
	}
	return false
}
