package main

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// FoodSpec says how a food's nutrients are known: either stated directly
// (Nutrients) or derived from other foods (Ingredients).
type FoodSpec interface {
	isFoodSpec()
}

// Ingredient is a serving of another food. Food is resolved when the parent
// is loaded and owned by the parent.
type Ingredient struct {
	Key     string
	Serving Serving
	Food    Food
}

// Ingredients is a FoodSpec built from other foods.
type Ingredients []Ingredient

func (Ingredients) isFoodSpec() {}

// ServingUnit says how many of Unit make up one base serving,
// e.g. {"g", 100} means 100g is one serving.
type ServingUnit struct {
	Unit string
	Size float64
}

// Food describes a single food item.
type Food struct {
	// Display name. Other records reference a food by its key, not its name.
	Name     string
	Spec     FoodSpec
	Servings []ServingUnit
}

// UnknownUnitError is returned when a serving unit matches none of a food's units.
type UnknownUnitError struct {
	Unit  string
	Units []string
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("unknown serving unit %q, expected one of: %s", e.Unit, strings.Join(e.Units, ", "))
}

// AmbiguousUnitError is returned when a serving unit is a prefix of more than
// one of a food's units.
type AmbiguousUnitError struct {
	Unit   string
	First  string
	Second string
}

func (e *AmbiguousUnitError) Error() string {
	return fmt.Sprintf("serving unit %q is ambiguous between %q and %q", e.Unit, e.First, e.Second)
}

// Units returns the food's unit names in declaration order.
func (f *Food) Units() []string {
	return lo.Map(f.Servings, func(s ServingUnit, _ int) string { return s.Unit })
}

// Portion converts s into a multiple of the food's base serving.
// Units may be abbreviated to any unambiguous prefix, so "c" finds "cups".
func (f *Food) Portion(s Serving) (float64, error) {
	if s.Unit == "" {
		return s.Size, nil
	}
	matched := lo.Filter(f.Servings, func(u ServingUnit, _ int) bool {
		return strings.HasPrefix(u.Unit, s.Unit)
	})
	switch len(matched) {
	case 0:
		return 0, &UnknownUnitError{Unit: s.Unit, Units: f.Units()}
	case 1:
		return s.Size / matched[0].Size, nil
	default:
		return 0, &AmbiguousUnitError{Unit: s.Unit, First: matched[0].Unit, Second: matched[1].Unit}
	}
}

// Serve computes the nutrients in serving s of the food.
func (f *Food) Serve(s Serving) (Nutrients, error) {
	portion, err := f.Portion(s)
	if err != nil {
		return Nutrients{}, err
	}

	switch spec := f.Spec.(type) {
	case Nutrients:
		return spec.Scale(portion), nil
	case Ingredients:
		var total Nutrients
		for _, ing := range spec {
			n, err := ing.Food.Serve(ing.Serving.Scale(portion))
			if err != nil {
				return Nutrients{}, fmt.Errorf("ingredient %s: %w", ing.Key, err)
			}
			total = total.Add(n)
		}
		return total, nil
	case nil:
		return Nutrients{}, nil
	default:
		return Nutrients{}, fmt.Errorf("food %q has unhandled spec %T", f.Name, spec)
	}
}

// Nutrients returns the nutrients in one base serving.
func (f *Food) Nutrients() (Nutrients, error) {
	return f.Serve(DefaultServing)
}
