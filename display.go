package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

const rule = "═══════════════════════════════════════"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func nutrientCells(n Nutrients) string {
	return fmt.Sprintf("%.1f\t%.1f\t%.1f\t%.0f", n.Carb, n.Fat, n.Protein, n.KCal)
}

const nutrientHeader = "CARB\tFAT\tPROTEIN\tKCAL"

func formatServings(servings []ServingUnit, sep string) string {
	parts := make([]string, len(servings))
	for i, s := range servings {
		parts[i] = formatFloat(s.Size) + " " + s.Unit
	}
	return strings.Join(parts, sep)
}

func displayFood(w io.Writer, key string, food *Food) error {
	n, err := food.Nutrients()
	if err != nil {
		return err
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  %s (%s)\n", food.Name, key)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Per serving:")
	tw := newTable(w)
	fmt.Fprintln(tw, "  "+nutrientHeader)
	fmt.Fprintln(tw, "  "+nutrientCells(n))
	tw.Flush()
	fmt.Fprintln(w)

	if len(food.Servings) > 0 {
		fmt.Fprintf(w, "1 serving = %s\n", formatServings(food.Servings, " = "))
		fmt.Fprintln(w)
	}

	if ingredients, ok := food.Spec.(Ingredients); ok {
		return displayEntries(w, "Ingredients:", ingredientEntries(ingredients))
	}
	return nil
}

func ingredientEntries(ingredients Ingredients) []Entry {
	entries := make([]Entry, len(ingredients))
	for i, ing := range ingredients {
		entries[i] = Entry{Key: ing.Key, Serving: ing.Serving, Food: ing.Food}
	}
	return entries
}

// displayEntries prints one row per entry followed by a total row.
func displayEntries(w io.Writer, title string, entries []Entry) error {
	fmt.Fprintln(w, title)
	tw := newTable(w)
	fmt.Fprintln(tw, "  FOOD\tSERVING\t"+nutrientHeader)

	values := make([]Nutrients, len(entries))
	for i, e := range entries {
		n, err := e.Food.Serve(e.Serving)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Key, err)
		}
		values[i] = n
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", e.Key, e.Serving, nutrientCells(n))
	}
	fmt.Fprintf(tw, "  TOTAL\t\t%s\n", nutrientCells(SumNutrients(values...)))
	return tw.Flush()
}
