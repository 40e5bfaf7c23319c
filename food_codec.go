package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
)

// Food files are TOML with a top-level name and three tables:
//
//	name = "Oats"
//
//	[nutrients]
//	carb = 68.7
//	fat = 5.89
//	protein = 13.5
//	kcal = 382.0
//
//	[servings]
//	cups = 0.5
//	g = 100.0
//
// A composite food has an [ingredients] table instead of [nutrients], whose
// values are servings of other foods:
//
//	[ingredients]
//	oats = "0.5 cups"
//	banana = 1
//
// The unstable parser is used instead of toml.Unmarshal because the order of
// [servings] and [ingredients] is significant.

const (
	sectionNutrients   = "nutrients"
	sectionServings    = "servings"
	sectionIngredients = "ingredients"
)

func (*Food) Dir() string { return "food" }

func (f *Food) Path(key string) string { return namedPath(f.Dir(), key) }

func (f *Food) Key(path string) (string, error) { return namedKey(f.Dir(), path) }

// Load reads a food. Ingredients are resolved with resolve.
func (f *Food) Load(r io.Reader, resolve Resolver) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	var (
		food        Food
		section     string
		nutrients   Nutrients
		ingredients Ingredients
		sections    = map[string]bool{}
		seen        = map[string]bool{}
	)

	p := unstable.Parser{}
	p.Reset(data)
	for p.NextExpression() {
		e := p.Expression()
		switch e.Kind {
		case unstable.Comment:
			continue
		case unstable.Table:
			section = joinKey(e.Key())
			switch section {
			case sectionNutrients, sectionServings, sectionIngredients:
			default:
				return fmt.Errorf("unexpected food section [%s]", section)
			}
			if sections[section] {
				return fmt.Errorf("duplicate food section [%s]", section)
			}
			sections[section] = true
		case unstable.KeyValue:
			key := joinKey(e.Key())
			id := section + "." + key
			if seen[id] {
				return fmt.Errorf("duplicate food key %s", describeKey(section, key))
			}
			seen[id] = true

			slog.Debug("parsing food entry", "section", section, "key", key)
			switch section {
			case "":
				if key != "name" {
					return fmt.Errorf("unexpected food key %q", key)
				}
				name, err := tomlString(e.Value())
				if err != nil {
					return fmt.Errorf("food key name: %w", err)
				}
				food.Name = name
			case sectionNutrients:
				v, err := tomlNumber(e.Value())
				if err != nil {
					return fmt.Errorf("food key %s: %w", describeKey(section, key), err)
				}
				switch key {
				case "carb":
					nutrients.Carb = v
				case "fat":
					nutrients.Fat = v
				case "protein":
					nutrients.Protein = v
				case "kcal":
					nutrients.KCal = v
				default:
					return fmt.Errorf("unexpected nutrient %q", key)
				}
			case sectionServings:
				v, err := tomlNumber(e.Value())
				if err != nil {
					return fmt.Errorf("food key %s: %w", describeKey(section, key), err)
				}
				if v <= 0 {
					return fmt.Errorf("serving unit %q must have a positive size, got %s", key, formatFloat(v))
				}
				food.Servings = append(food.Servings, ServingUnit{Unit: key, Size: v})
			case sectionIngredients:
				serving, err := tomlServing(e.Value())
				if err != nil {
					return fmt.Errorf("food key %s: %w", describeKey(section, key), err)
				}
				child, err := resolveFood(resolve, key)
				if err != nil {
					return err
				}
				if _, err := child.Portion(serving); err != nil {
					return fmt.Errorf("ingredient %s: %w", key, err)
				}
				ingredients = append(ingredients, Ingredient{Key: key, Serving: serving, Food: child})
			}
		default:
			return fmt.Errorf("unsupported TOML expression %s", e.Kind)
		}
	}
	if err := p.Error(); err != nil {
		var perr *unstable.ParserError
		if errors.As(err, &perr) {
			return fmt.Errorf("invalid food syntax near %q: %w", perr.Highlight, err)
		}
		return err
	}

	switch {
	case sections[sectionNutrients] && sections[sectionIngredients]:
		return errors.New("food cannot have both [nutrients] and [ingredients]")
	case sections[sectionNutrients]:
		food.Spec = nutrients.WithKCal()
	case sections[sectionIngredients]:
		food.Spec = ingredients
	default:
		return errors.New("food needs either [nutrients] or [ingredients]")
	}

	*f = food
	return nil
}

// Save writes the food in the form Load reads.
func (f *Food) Save(w io.Writer) error {
	tw := &tomlWriter{w: w}
	tw.entry("name", f.Name)

	switch spec := f.Spec.(type) {
	case Nutrients:
		tw.section(sectionNutrients)
		tw.entry("carb", spec.Carb)
		tw.entry("fat", spec.Fat)
		tw.entry("protein", spec.Protein)
		tw.entry("kcal", spec.KCal)
	case Ingredients:
		tw.section(sectionIngredients)
		for _, ing := range spec {
			tw.entry(ing.Key, ing.Serving.String())
		}
	default:
		return fmt.Errorf("cannot save food %q with spec %T", f.Name, spec)
	}

	if len(f.Servings) > 0 {
		tw.section(sectionServings)
		for _, s := range f.Servings {
			tw.entry(s.Unit, s.Size)
		}
	}
	return tw.err
}

// tomlWriter writes one entry at a time so that entry order is kept.
// The first error sticks.
type tomlWriter struct {
	w   io.Writer
	err error
}

func (t *tomlWriter) section(name string) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, "\n[%s]\n", name)
}

func (t *tomlWriter) entry(key string, value any) {
	if t.err != nil {
		return
	}
	var b []byte
	b, t.err = toml.Marshal(map[string]any{key: value})
	if t.err != nil {
		return
	}
	_, t.err = t.w.Write(b)
}

func joinKey(it unstable.Iterator) string {
	var parts []string
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return strings.Join(parts, ".")
}

func describeKey(section, key string) string {
	if section == "" {
		return key
	}
	return section + "." + key
}

func tomlString(n *unstable.Node) (string, error) {
	if n.Kind != unstable.String {
		return "", fmt.Errorf("expected a string, got %s", n.Kind)
	}
	return string(n.Data), nil
}

func tomlNumber(n *unstable.Node) (float64, error) {
	raw := string(n.Data)
	switch n.Kind {
	case unstable.Integer:
		i, err := strconv.ParseInt(raw, 0, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer %q: %w", raw, err)
		}
		return float64(i), nil
	case unstable.Float:
		f, err := strconv.ParseFloat(strings.ReplaceAll(raw, "_", ""), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid float %q: %w", raw, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected a number, got %s", n.Kind)
	}
}

// tomlServing accepts either a serving literal ("0.5 cups") or a bare number
// of base servings.
func tomlServing(n *unstable.Node) (Serving, error) {
	if n.Kind == unstable.String {
		return ParseServing(string(n.Data))
	}
	size, err := tomlNumber(n)
	if err != nil {
		return Serving{}, err
	}
	return Serving{Size: size}, nil
}
