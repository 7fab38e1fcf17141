package advisory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"farm2market/errs"
	"farm2market/gemini"
	"farm2market/models"
	"farm2market/utils"
)

// Recommendation is one suggested crop for a buyer.
type Recommendation struct {
	CropName            string  `json:"crop_name"`
	Reason              string  `json:"reason"`
	SeasonScore         float64 `json:"season_score"`
	NutritionBenefits   string  `json:"nutrition_benefits"`
	EstimatedPriceRange string  `json:"estimated_price_range"`
}

// RecommendationSet pairs the suggestions with the live listings that
// match them.
type RecommendationSet struct {
	Recommendations []Recommendation
	AvailableCrops  []utils.M
	UserLocation    string
}

var seasonalCrops = map[time.Month][]string{
	time.January:   {"wheat", "mustard", "peas", "carrot", "cauliflower"},
	time.February:  {"wheat", "barley", "gram", "potato", "cabbage"},
	time.March:     {"barley", "mustard", "onion", "garlic", "spinach"},
	time.April:     {"rice", "cotton", "sugarcane", "maize", "tomato"},
	time.May:       {"rice", "cotton", "groundnut", "okra", "cucumber"},
	time.June:      {"rice", "cotton", "sugarcane", "beans", "gourds"},
	time.July:      {"rice", "maize", "cotton", "pulses", "leafy greens"},
	time.August:    {"rice", "sugarcane", "turmeric", "ginger", "chili"},
	time.September: {"rice", "cotton", "soybean", "corn", "vegetables"},
	time.October:   {"wheat", "mustard", "potato", "onion", "garlic"},
	time.November:  {"wheat", "barley", "peas", "carrot", "radish"},
	time.December:  {"wheat", "gram", "mustard", "cabbage", "cauliflower"},
}

func seasonalFor(month time.Month) []string {
	if crops, ok := seasonalCrops[month]; ok {
		return crops
	}
	return []string{"rice", "wheat", "vegetables"}
}

var staticRecommendations = []Recommendation{
	{CropName: "Tomato", Reason: "High in vitamins, versatile cooking", SeasonScore: 0.9,
		NutritionBenefits: "Rich in Vitamin C and antioxidants", EstimatedPriceRange: "₹30-50 per kg"},
	{CropName: "Onion", Reason: "Essential cooking ingredient", SeasonScore: 0.8,
		NutritionBenefits: "Good for heart health", EstimatedPriceRange: "₹25-40 per kg"},
	{CropName: "Potato", Reason: "Staple food, good storage", SeasonScore: 0.7,
		NutritionBenefits: "Source of carbohydrates and potassium", EstimatedPriceRange: "₹15-30 per kg"},
}

// Recommend builds personalized crop suggestions for a buyer from
// their purchase history and the current season, then joins them with
// matching live listings.
func (s *Service) Recommend(ctx context.Context, userID string) (RecommendationSet, error) {
	user, ok := s.Store.Users.Get(userID)
	if !ok {
		return RecommendationSet{}, errs.NotFound("user")
	}

	purchased := make([]string, 0)
	seen := make(map[string]bool)
	for _, order := range s.Store.Orders.Scan(func(o models.Order) bool { return o.BuyerID == userID }) {
		if !seen[order.CropName] {
			seen[order.CropName] = true
			purchased = append(purchased, order.CropName)
		}
	}

	seasonal := seasonalFor(s.Store.Now().Month())

	history := "None"
	if len(purchased) > 0 {
		history = strings.Join(purchased, ", ")
	}

	prompt := fmt.Sprintf(`Based on user profile and preferences, recommend 5 crops for a buyer in %s.
User's previous purchases: %s
Current seasonal crops: %s

Consider:
1. Seasonal availability
2. Nutritional variety
3. Local growing conditions
4. Price value
5. Complementary cooking ingredients

Return JSON format:
{
    "recommendations": [
        {
            "crop_name": "name",
            "reason": "why recommended",
            "season_score": 0.8,
            "nutrition_benefits": "benefits",
            "estimated_price_range": "₹X-Y per kg"
        }
    ]
}`, user.Location, history, strings.Join(seasonal, ", "))

	var reply struct {
		Recommendations []Recommendation `json:"recommendations"`
	}
	err := askJSON(ctx, s.Model, prompt, gemini.GenerationConfig{Temperature: 0.7, MaxOutputTokens: 1000}, 1, &reply, func() error {
		if len(reply.Recommendations) == 0 {
			return fmt.Errorf("no recommendations in reply")
		}
		return nil
	})
	if err != nil {
		return RecommendationSet{
			Recommendations: staticRecommendations,
			AvailableCrops:  []utils.M{},
			UserLocation:    user.Location,
		}, nil
	}

	return RecommendationSet{
		Recommendations: reply.Recommendations,
		AvailableCrops:  s.matchListings(reply.Recommendations),
		UserLocation:    user.Location,
	}, nil
}

// matchListings finds live catalogue entries whose name matches a
// recommendation in either substring direction.
func (s *Service) matchListings(recs []Recommendation) []utils.M {
	matches := make([]utils.M, 0)
	for _, crop := range s.Store.Crops.Scan(nil) {
		cropName := strings.ToLower(crop.Name)
		for _, rec := range recs {
			recName := strings.ToLower(rec.CropName)
			if strings.Contains(cropName, recName) || strings.Contains(recName, cropName) {
				farmerName := ""
				if farmer, ok := s.Store.Users.Get(crop.FarmerID); ok {
					farmerName = farmer.FullName
				}
				matches = append(matches, utils.M{
					"crop_id":     crop.CropID,
					"farmer_name": farmerName,
					"price":       crop.Price,
					"location":    crop.Location,
					"quantity":    crop.Quantity,
					"unit":        crop.Unit,
				})
				break
			}
		}
	}
	return matches
}
