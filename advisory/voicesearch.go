package advisory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"farm2market/gemini"
	"farm2market/models"
	"farm2market/utils"
)

const maxSearchResults = 10

// ParsedQuery is the structured reading of a spoken search phrase.
type ParsedQuery struct {
	Crops          []string `json:"crops"`
	Location       string   `json:"location"`
	Quantity       string   `json:"quantity"`
	PriceRange     string   `json:"price_range"`
	QualityFilters []string `json:"quality_filters"`
	SearchIntent   string   `json:"search_intent"`
}

// VoiceSearchResult carries the matches plus how the query was
// understood. Fallback is set when the model could not parse the query
// and plain word matching was used instead.
type VoiceSearchResult struct {
	ParsedQuery  *ParsedQuery
	Matches      []utils.M
	TotalResults int
	Fallback     bool
}

// VoiceSearch interprets a spoken query and ranks matching listings.
func (s *Service) VoiceSearch(ctx context.Context, query string) VoiceSearchResult {
	prompt := fmt.Sprintf(`Parse this voice search query for an agricultural marketplace: "%s"

Extract:
1. Crop names mentioned
2. Quantity/amount if specified
3. Location preferences
4. Price range if mentioned
5. Quality requirements (organic, fresh, etc.)

Return JSON:
{
    "crops": ["crop1", "crop2"],
    "location": "location or null",
    "quantity": "amount or null",
    "price_range": "range or null",
    "quality_filters": ["organic", "fresh"],
    "search_intent": "brief description"
}`, query)

	var parsed ParsedQuery
	err := askJSON(ctx, s.Model, prompt, gemini.GenerationConfig{Temperature: 0.3, MaxOutputTokens: 500}, 1, &parsed, func() error {
		if len(parsed.Crops) == 0 {
			return fmt.Errorf("no crops extracted")
		}
		return nil
	})
	if err != nil {
		return s.wordSearch(query)
	}

	type scored struct {
		entry utils.M
		score int
	}
	results := make([]scored, 0)
	for _, crop := range s.Store.Crops.Scan(nil) {
		cropName := strings.ToLower(crop.Name)

		cropMatch := false
		for _, want := range parsed.Crops {
			w := strings.ToLower(want)
			if strings.Contains(cropName, w) || strings.Contains(w, cropName) {
				cropMatch = true
				break
			}
		}
		if !cropMatch {
			continue
		}
		if parsed.Location != "" && !strings.Contains(strings.ToLower(crop.Location), strings.ToLower(parsed.Location)) {
			continue
		}

		entry := s.searchEntry(crop)
		score := relevance(crop, parsed)
		entry["relevance_score"] = score
		results = append(results, scored{entry: entry, score: score})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })

	matches := make([]utils.M, 0, len(results))
	for _, r := range results {
		matches = append(matches, r.entry)
	}
	total := len(matches)
	if len(matches) > maxSearchResults {
		matches = matches[:maxSearchResults]
	}

	return VoiceSearchResult{ParsedQuery: &parsed, Matches: matches, TotalResults: total}
}

// wordSearch is the model-free fallback: any query word appearing in a
// crop name is a hit.
func (s *Service) wordSearch(query string) VoiceSearchResult {
	words := strings.Fields(strings.ToLower(query))

	matches := make([]utils.M, 0)
	for _, crop := range s.Store.Crops.Scan(nil) {
		cropName := strings.ToLower(crop.Name)
		for _, w := range words {
			if strings.Contains(cropName, w) {
				matches = append(matches, s.searchEntry(crop))
				break
			}
		}
	}

	total := len(matches)
	if len(matches) > maxSearchResults {
		matches = matches[:maxSearchResults]
	}
	return VoiceSearchResult{Matches: matches, TotalResults: total, Fallback: true}
}

func (s *Service) searchEntry(crop models.Crop) utils.M {
	farmerName := "Unknown"
	if farmer, ok := s.Store.Users.Get(crop.FarmerID); ok {
		farmerName = farmer.FullName
	}
	return utils.M{
		"crop_id":     crop.CropID,
		"name":        crop.Name,
		"farmer_name": farmerName,
		"location":    crop.Location,
		"price":       crop.Price,
		"quantity":    crop.Quantity,
		"unit":        crop.Unit,
	}
}

// relevance scores a listing against the parsed query: crop name match
// dominates, then location, then affordable price and healthy stock.
func relevance(crop models.Crop, parsed ParsedQuery) int {
	score := 0
	cropName := strings.ToLower(crop.Name)
	for _, want := range parsed.Crops {
		if strings.Contains(cropName, strings.ToLower(want)) {
			score += 10
		}
	}
	if parsed.Location != "" && strings.Contains(strings.ToLower(crop.Location), strings.ToLower(parsed.Location)) {
		score += 5
	}
	if crop.Price < 100 {
		score += 2
	}
	if crop.Quantity > 10 {
		score += 1
	}
	return score
}
