package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// Entry is a serving of a food, as listed in a journal or recipe.
type Entry struct {
	Key     string
	Serving Serving
	Food    Food
}

// Journal records the food eaten during one day, in the order it was eaten.
// On disk it is a list of "food = serving" lines. The serving is optional
// and defaults to one base serving:
//
//	oats = 0.5 cups
//	banana = 1
//	berries
type Journal []Entry

const journalDateLayout = "2006/01/02"

func (*Journal) Dir() string { return "journal" }

// Path maps a date to journal/YYYY/MM/DD.txt.
func (j *Journal) Path(date time.Time) string {
	return j.Dir() + "/" + date.Format(journalDateLayout) + ".txt"
}

func (j *Journal) Key(path string) (time.Time, error) {
	s, ok := strings.CutPrefix(path, j.Dir()+"/")
	if ok {
		s, ok = strings.CutSuffix(s, ".txt")
	}
	if !ok {
		return time.Time{}, fmt.Errorf("not a journal path: %s", path)
	}
	date, err := time.Parse(journalDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("not a journal path: %s: %w", path, err)
	}
	return date, nil
}

func (j *Journal) Load(r io.Reader, resolve Resolver) error {
	entries, err := loadEntries(r, resolve, nil)
	if err != nil {
		return err
	}
	*j = entries
	return nil
}

func (j *Journal) Save(w io.Writer) error {
	return saveEntries(w, *j)
}

// Add appends a serving of food, checking that the serving's unit is one
// the food defines.
func (j *Journal) Add(key string, serving Serving, food Food) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if _, err := food.Portion(serving); err != nil {
		return err
	}
	*j = append(*j, Entry{Key: key, Serving: serving, Food: food})
	return nil
}

// Nutrients returns the total nutrients eaten.
func (j *Journal) Nutrients() (Nutrients, error) {
	return entriesNutrients(*j)
}

// LoadJournal loads the journal for date. A day with no journal is empty.
func LoadJournal(db *Database, date time.Time) (Journal, error) {
	j, err := Load[Journal](db, Date(date))
	if err != nil || j == nil {
		return Journal{}, err
	}
	return *j, nil
}

// Date truncates t to its calendar day, in UTC.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current local calendar day.
func Today() time.Time {
	return Date(time.Now())
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	date, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return date, nil
}

// loadEntries reads "key [= serving]" lines. Blank lines and lines starting
// with # are skipped. If header is not nil it is offered every "k = v" line
// first and consumes the line by returning true.
func loadEntries(r io.Reader, resolve Resolver, header func(key, value string) bool) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := scanner.Text()
		line := strings.TrimSpace(text)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, hasServing := strings.Cut(line, "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if hasServing && header != nil && header(key, value) {
			continue
		}
		if key == "" {
			return nil, &DecodeError{Line: lineNo, Text: text, Err: fmt.Errorf("missing food key")}
		}

		serving := DefaultServing
		if hasServing {
			var err error
			serving, err = ParseServing(value)
			if err != nil {
				return nil, &DecodeError{Line: lineNo, Text: text, Err: err}
			}
		}

		food, err := resolveFood(resolve, key)
		if err != nil {
			return nil, &DecodeError{Line: lineNo, Text: text, Err: err}
		}
		if _, err := food.Portion(serving); err != nil {
			return nil, &DecodeError{Line: lineNo, Text: text, Err: err}
		}
		entries = append(entries, Entry{Key: key, Serving: serving, Food: food})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func saveEntries(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		if err := checkKey(e.Key); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s = %s\n", e.Key, e.Serving); err != nil {
			return err
		}
	}
	return nil
}

func entriesNutrients(entries []Entry) (Nutrients, error) {
	values := make([]Nutrients, len(entries))
	for i, e := range entries {
		n, err := e.Food.Serve(e.Serving)
		if err != nil {
			return Nutrients{}, fmt.Errorf("%s: %w", e.Key, err)
		}
		values[i] = n
	}
	return SumNutrients(values...), nil
}
