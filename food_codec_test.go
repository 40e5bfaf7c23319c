package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resolverOf resolves keys from a fixed set of foods.
func resolverOf(foods map[string]Food) Resolver {
	return func(key string) (*Food, error) {
		f, ok := foods[key]
		if !ok {
			return nil, nil
		}
		return &f, nil
	}
}

func decodeFood(t *testing.T, text string, resolve Resolver) Food {
	t.Helper()
	var f Food
	require.NoError(t, f.Load(strings.NewReader(text), resolve))
	return f
}

func encodeFood(t *testing.T, f Food) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, f.Save(&buf))
	return buf.String()
}

func TestFoodLoad(t *testing.T) {
	f := decodeFood(t, `name = "Oats"

[nutrients]
carb = 68.7
fat = 5.89
protein = 13.5
kcal = 382

[servings]
cups = 0.5
g = 100.0
`, nil)

	assert.Equal(t, oats(), f)
}

func TestFoodLoadFillsKCal(t *testing.T) {
	f := decodeFood(t, `name = "Oil"
[nutrients]
fat = 100
`, nil)

	n, err := f.Nutrients()
	require.NoError(t, err)
	assertNutrients(t, Nutrients{Fat: 100, KCal: 900}, n)
	assert.Empty(t, f.Servings)
}

func TestFoodLoadIngredients(t *testing.T) {
	f := decodeFood(t, `name = "Porridge"

[ingredients]
oats = "0.5 c"
more = 2

[servings]
bowl = 1.0
`, resolverOf(map[string]Food{"oats": oats(), "more": oats()}))

	ingredients, ok := f.Spec.(Ingredients)
	require.True(t, ok)
	require.Len(t, ingredients, 2)
	assert.Equal(t, "oats", ingredients[0].Key)
	assert.Equal(t, Serving{Size: 0.5, Unit: "c"}, ingredients[0].Serving)
	assert.Equal(t, oats(), ingredients[0].Food)
	assert.Equal(t, "more", ingredients[1].Key)
	assert.Equal(t, Serving{Size: 2}, ingredients[1].Serving)
	assert.Equal(t, []ServingUnit{{Unit: "bowl", Size: 1}}, f.Servings)

	n, err := f.Nutrients()
	require.NoError(t, err)
	assertNutrients(t, oats().Spec.(Nutrients).Scale(3), n)
}

func TestFoodLoadQuotedUnits(t *testing.T) {
	f := decodeFood(t, `name = "Rice"
[nutrients]
carb = 80
[servings]
"g dry" = 100
'cups cooked' = 1.5
`, nil)

	assert.Equal(t, []string{"g dry", "cups cooked"}, f.Units())
}

func TestFoodLoadErrors(t *testing.T) {
	resolve := resolverOf(map[string]Food{"oats": oats()})

	tests := []struct {
		name string
		text string
	}{
		{"empty", ``},
		{"no nutrients or ingredients", "name = \"X\"\n[servings]\ng = 1\n"},
		{"both specs", "[nutrients]\ncarb = 1\n[ingredients]\noats = 1\n"},
		{"unknown section", "[vitamins]\nc = 1\n"},
		{"duplicate section", "[nutrients]\ncarb = 1\n[nutrients]\nfat = 1\n"},
		{"unknown nutrient", "[nutrients]\nsugar = 1\n"},
		{"unknown top-level key", "title = \"X\"\n[nutrients]\ncarb = 1\n"},
		{"name not a string", "name = 1\n[nutrients]\ncarb = 1\n"},
		{"nutrient not a number", "[nutrients]\ncarb = \"lots\"\n"},
		{"duplicate unit", "[nutrients]\ncarb = 1\n[servings]\ng = 100\ng = 50\n"},
		{"duplicate ingredient", "[ingredients]\noats = 1\n\"oats\" = 2\n"},
		{"zero unit size", "[nutrients]\ncarb = 1\n[servings]\ng = 0\n"},
		{"negative unit size", "[nutrients]\ncarb = 1\n[servings]\ng = -5\n"},
		{"bad ingredient serving", "[ingredients]\noats = \"lots\"\n"},
		{"ingredient unit not defined", "[ingredients]\noats = \"2 tbsp\"\n"},
		{"syntax", "[nutrients\ncarb = 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Food
			assert.Error(t, f.Load(strings.NewReader(tt.text), resolve))
		})
	}
}

func TestFoodLoadMissingIngredient(t *testing.T) {
	var f Food
	err := f.Load(strings.NewReader("[ingredients]\nflour = \"2 cups\"\n"), resolverOf(nil))

	var notFound *FoodNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "flour", notFound.Key)
}

func TestFoodLoadResolverError(t *testing.T) {
	boom := errors.New("boom")
	var f Food
	err := f.Load(strings.NewReader("[ingredients]\noats = 1\n"), func(string) (*Food, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestFoodSaveRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		food Food
	}{
		{"nutrients", oats()},
		{"no servings", Food{Name: "Salt", Spec: Nutrients{}}},
		{"odd names", Food{
			Name:     `Kasia's "Best" Pancakes`,
			Spec:     Nutrients{Carb: 26.3, Fat: 7.02, Protein: 3.51, KCal: 158},
			Servings: []ServingUnit{{Unit: "GRM", Size: 57}, {Unit: "g dry", Size: 1.0 / 3}},
		}},
		{"ingredients", granolaFood()},
	}

	foods := map[string]Food{"oats": oats(), "oil": granolaFood().Spec.(Ingredients)[1].Food}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := encodeFood(t, tt.food)
			got := decodeFood(t, text, resolverOf(foods))
			assert.Equal(t, tt.food, got)

			// Saving is deterministic.
			assert.Equal(t, text, encodeFood(t, got))
		})
	}
}

func TestFoodSaveKeepsOrder(t *testing.T) {
	text := encodeFood(t, Food{
		Name:     "Banana",
		Spec:     Nutrients{Carb: 23},
		Servings: []ServingUnit{{Unit: "medium", Size: 0.85}, {Unit: "g", Size: 100}},
	})

	assert.Less(t, strings.Index(text, "name"), strings.Index(text, "[nutrients]"))
	assert.Less(t, strings.Index(text, "[nutrients]"), strings.Index(text, "[servings]"))
	assert.Less(t, strings.Index(text, "medium"), strings.Index(text, "g = "))
	assert.Less(t, strings.Index(text, "carb"), strings.Index(text, "kcal"))
}

func TestFoodSaveWithoutSpec(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, (&Food{Name: "Nothing"}).Save(&buf))
}

func TestFoodPath(t *testing.T) {
	var f *Food
	assert.Equal(t, "food/oats.txt", f.Path("oats"))

	key, err := f.Key("food/oats.txt")
	require.NoError(t, err)
	assert.Equal(t, "oats", key)

	for _, path := range []string{"recipe/oats.txt", "food/oats.toml", "food/x/oats.txt", "food/.txt"} {
		_, err := f.Key(path)
		assert.Error(t, err, path)
	}
}
