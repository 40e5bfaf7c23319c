package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Recipe is a named collection of foods in various quantities. On disk it
// has the same "food = serving" lines as a journal, plus an optional
// "name = ..." line giving the display name:
//
//	name = Banana Oatmeal
//	oats = 0.5 c
//	banana = 150 g
type Recipe struct {
	Name    string
	Entries []Entry
}

func (*Recipe) Dir() string { return "recipe" }

func (r *Recipe) Path(key string) string { return namedPath(r.Dir(), key) }

func (r *Recipe) Key(path string) (string, error) { return namedKey(r.Dir(), path) }

func (r *Recipe) Load(rd io.Reader, resolve Resolver) error {
	var recipe Recipe
	entries, err := loadEntries(rd, resolve, func(key, value string) bool {
		if key != "name" {
			return false
		}
		recipe.Name = value
		return true
	})
	if err != nil {
		return err
	}
	recipe.Entries = entries
	*r = recipe
	return nil
}

func (r *Recipe) Save(w io.Writer) error {
	if strings.ContainsAny(r.Name, "\r\n") {
		return fmt.Errorf("recipe name %q spans more than one line", r.Name)
	}
	if r.Name != strings.TrimSpace(r.Name) {
		return fmt.Errorf("recipe name %q has surrounding whitespace", r.Name)
	}
	for _, e := range r.Entries {
		if e.Key == "name" {
			return errors.New(`a recipe cannot list a food keyed "name"`)
		}
	}
	if r.Name != "" {
		if _, err := fmt.Fprintf(w, "name = %s\n", r.Name); err != nil {
			return err
		}
	}
	return saveEntries(w, r.Entries)
}

// Nutrients returns the total nutrients of the whole recipe.
func (r *Recipe) Nutrients() (Nutrients, error) {
	return entriesNutrients(r.Entries)
}

// Food turns the recipe into a composite food whose base serving is the
// whole recipe.
func (r *Recipe) Food() Food {
	ingredients := make(Ingredients, 0, len(r.Entries))
	for _, e := range r.Entries {
		ingredients = append(ingredients, Ingredient{Key: e.Key, Serving: e.Serving, Food: e.Food})
	}
	return Food{Name: r.Name, Spec: ingredients}
}

// LoadRecipe loads the recipe stored under key. A missing recipe is empty.
func LoadRecipe(db *Database, key string) (Recipe, error) {
	r, err := Load[Recipe](db, key)
	if err != nil || r == nil {
		return Recipe{}, err
	}
	return *r, nil
}
