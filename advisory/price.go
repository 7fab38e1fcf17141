package advisory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"farm2market/gemini"
)

// PriceSuggestion is the answer shape for both the model path and the
// market-average fallback.
type PriceSuggestion struct {
	SuggestedPrice float64 `json:"suggested_price"`
	Confidence     float64 `json:"confidence"`
	Explanation    string  `json:"explanation"`
}

var basePrices = map[string]float64{
	"rice": 28, "wheat": 32, "tomato": 45, "potato": 22, "onion": 38,
	"corn": 25, "millet": 35, "sugarcane": 30, "cotton": 85, "soybean": 60,
	"mustard": 70, "groundnut": 80, "carrot": 40, "cabbage": 25, "cauliflower": 35,
	"spinach": 30, "beans": 50, "peas": 60, "cucumber": 25, "bitter gourd": 40,
	"okra": 45, "brinjal": 35, "chili": 120, "ginger": 180, "turmeric": 150,
}

const defaultBasePrice = 30

var locationMultipliers = map[string]float64{
	"mumbai": 1.3, "delhi": 1.25, "bangalore": 1.2, "chennai": 1.15,
	"kolkata": 1.1, "pune": 1.2, "hyderabad": 1.1, "ahmedabad": 1.15,
}

const priceAttempts = 3

var priceConfig = gemini.GenerationConfig{
	Temperature:     0.3,
	TopP:            0.8,
	TopK:            40,
	MaxOutputTokens: 200,
}

// SuggestPrice asks the model for a market price and falls back to the
// averages table when it cannot answer.
func (s *Service) SuggestPrice(ctx context.Context, cropName, location, unit string) PriceSuggestion {
	if unit == "" {
		unit = "kg"
	}

	prompt := fmt.Sprintf(`Analyze the current market price for '%s' in '%s', India.
Consider factors like seasonality, demand, local market trends, and quality.
Provide a suggested price per %s in INR.

Return ONLY a JSON object with this exact structure:
{
    "suggested_price": <number>,
    "confidence": <number between 0.1 and 1.0>,
    "explanation": "<brief explanation in 1-2 sentences mentioning price per %s>"
}`, cropName, location, unit, unit)

	// Pointer fields distinguish an absent key from a zero value; all
	// three are required before a model answer is trusted.
	var reply struct {
		SuggestedPrice *float64 `json:"suggested_price"`
		Confidence     *float64 `json:"confidence"`
		Explanation    string   `json:"explanation"`
	}
	err := askJSON(ctx, s.Model, prompt, priceConfig, priceAttempts, &reply, func() error {
		if reply.SuggestedPrice == nil || *reply.SuggestedPrice <= 0 || reply.Confidence == nil || reply.Explanation == "" {
			return fmt.Errorf("missing required fields")
		}
		return nil
	})
	if err != nil {
		return fallbackPrice(cropName, location)
	}

	return PriceSuggestion{
		SuggestedPrice: *reply.SuggestedPrice,
		Confidence:     math.Max(0.1, math.Min(1.0, *reply.Confidence)),
		Explanation:    reply.Explanation,
	}
}

// sortedKeys keeps table lookups deterministic when a query could
// match more than one entry.
func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// fallbackPrice estimates from the base-price table with a metro
// adjustment. Crop matching is substring in either direction.
func fallbackPrice(cropName, location string) PriceSuggestion {
	cropLower := strings.ToLower(cropName)
	basePrice := float64(defaultBasePrice)
	for _, crop := range sortedKeys(basePrices) {
		if strings.Contains(cropLower, crop) || strings.Contains(crop, cropLower) {
			basePrice = basePrices[crop]
			break
		}
	}

	locationLower := strings.ToLower(location)
	multiplier := 1.0
	for _, city := range sortedKeys(locationMultipliers) {
		if strings.Contains(locationLower, city) {
			multiplier = locationMultipliers[city]
			break
		}
	}

	return PriceSuggestion{
		SuggestedPrice: math.Round(basePrice*multiplier*100) / 100,
		Confidence:     0.6,
		Explanation: fmt.Sprintf(
			"Estimated price based on market averages for %s in %s. Consider local market conditions for final pricing.",
			cropName, location),
	}
}
