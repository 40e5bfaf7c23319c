package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

// DefaultSearchURL is the FoodData Central search endpoint.
// See https://fdc.nal.usda.gov/api-guide.html.
const DefaultSearchURL = "https://api.nal.usda.gov/fdc/v1/foods/search"

// Searcher finds candidate foods in a remote nutrition database.
// Pages are numbered from 1.
type Searcher interface {
	Search(ctx context.Context, query string, page int) ([]Food, error)
}

// FDC nutrient IDs.
const (
	nutrientProtein               = 1003
	nutrientFat                   = 1004
	nutrientCarbByDifference      = 1005
	nutrientEnergy                = 1008
	nutrientCarbBySummation       = 1050
	nutrientEnergyAtwaterGeneral  = 2047
	nutrientEnergyAtwaterSpecific = 2048
)

type fdcNutrient struct {
	NutrientID int     `json:"nutrientId"`
	Value      float64 `json:"value"`
}

type fdcFood struct {
	Description              string        `json:"description"`
	ServingSize              *float64      `json:"servingSize"`
	ServingSizeUnit          string        `json:"servingSizeUnit"`
	HouseholdServingFullText string        `json:"householdServingFullText"`
	FoodNutrients            []fdcNutrient `json:"foodNutrients"`
}

type fdcSearchResponse struct {
	Foods []fdcFood `json:"foods"`
}

// FDCClient searches FoodData Central.
type FDCClient struct {
	url      string
	apiKey   string
	pageSize int
	client   *http.Client
}

// NewFDCClient creates a client from the search settings in cfg.
func NewFDCClient(cfg *Config) *FDCClient {
	return &FDCClient{
		url:      cfg.SearchURL,
		apiKey:   cfg.SearchAPIKey,
		pageSize: cfg.SearchPageSize,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Search returns one page of foods matching query.
func (c *FDCClient) Search(ctx context.Context, query string, page int) ([]Food, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return nil, fmt.Errorf("invalid search URL %q: %w", c.url, err)
	}
	q := u.Query()
	q.Set("query", query)
	q.Set("pageNumber", strconv.Itoa(page))
	if c.pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(c.pageSize))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	slog.Debug("searching foods", "url", u.Redacted(), "query", query, "page", page)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call food search: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read food search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("food search API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var sr fdcSearchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("failed to parse food search JSON: %w", err)
	}

	return lo.Map(sr.Foods, func(f fdcFood, _ int) Food { return f.food() }), nil
}

func (f *fdcFood) food() Food {
	return Food{
		Name:     f.Description,
		Spec:     f.nutrients(),
		Servings: f.servings(),
	}
}

// nutrient returns the first of ids that the food reports.
func (f *fdcFood) nutrient(ids ...int) float64 {
	for _, id := range ids {
		if n, ok := lo.Find(f.FoodNutrients, func(n fdcNutrient) bool { return n.NutrientID == id }); ok {
			return n.Value
		}
	}
	return 0
}

func (f *fdcFood) nutrients() Nutrients {
	return Nutrients{
		Carb:    f.nutrient(nutrientCarbByDifference, nutrientCarbBySummation),
		Fat:     f.nutrient(nutrientFat),
		Protein: f.nutrient(nutrientProtein),
		KCal:    f.nutrient(nutrientEnergyAtwaterSpecific, nutrientEnergyAtwaterGeneral, nutrientEnergy),
	}
}

func (f *fdcFood) servings() []ServingUnit {
	var res []ServingUnit
	if f.ServingSizeUnit != "" && f.ServingSize != nil && *f.ServingSize > 0 {
		res = append(res, ServingUnit{Unit: f.ServingSizeUnit, Size: *f.ServingSize})
	}
	if f.HouseholdServingFullText != "" {
		if s, ok := parseHouseholdServing(f.HouseholdServingFullText); !ok {
			slog.Warn("failed to parse household serving", "serving", f.HouseholdServingFullText)
		} else if !lo.ContainsBy(res, func(u ServingUnit) bool { return u.Unit == s.Unit }) {
			res = append(res, s)
		}
	}
	// Foundation foods have no serving data; their values are per 100g.
	if len(res) == 0 {
		res = append(res, ServingUnit{Unit: "g", Size: 100})
	}
	return res
}

// parseHouseholdServing parses text like "1 cup".
func parseHouseholdServing(text string) (ServingUnit, bool) {
	amount, unit, ok := strings.Cut(strings.TrimSpace(text), " ")
	if !ok {
		return ServingUnit{}, false
	}
	size, err := strconv.ParseFloat(amount, 64)
	unit = strings.TrimSpace(unit)
	if err != nil || size <= 0 || unit == "" {
		return ServingUnit{}, false
	}
	return ServingUnit{Unit: unit, Size: size}, true
}
