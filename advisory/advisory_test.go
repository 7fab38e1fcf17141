package advisory

import (
	"context"
	"errors"
	"testing"
	"time"

	"farm2market/gemini"
	"farm2market/models"
	"farm2market/store"
)

type scriptedModel struct {
	replies []string
	err     error
	calls   int
}

func (m *scriptedModel) Generate(_ context.Context, _ string, _ gemini.GenerationConfig) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	reply := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	return reply, nil
}

func seedStore() *store.Store {
	s := store.New()
	s.Now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }

	s.Users.Insert("farmer1", models.User{UserID: "farmer1", FullName: "Ravi Kumar", Role: "farmer", Location: "Pune"})
	s.Users.Insert("buyer1", models.User{UserID: "buyer1", FullName: "Anita Shah", Role: "buyer", Location: "Mumbai"})

	s.Crops.Insert("tomato1", models.Crop{
		CropID: "tomato1", FarmerID: "farmer1", Name: "Tomato",
		Quantity: 50, Unit: "kg", Location: "Pune", Price: 45,
	})
	s.Crops.Insert("rice1", models.Crop{
		CropID: "rice1", FarmerID: "farmer1", Name: "Basmati Rice",
		Quantity: 200, Unit: "kg", Location: "Pune", Price: 80,
	})
	return s
}

func TestCleanJSONStripsFences(t *testing.T) {
	cases := []struct{ in, want string }{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, c := range cases {
		if got := cleanJSON(c.in); got != c.want {
			t.Errorf("cleanJSON(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSuggestPriceFromModel(t *testing.T) {
	model := &scriptedModel{replies: []string{
		"```json\n{\"suggested_price\": 52.5, \"confidence\": 1.4, \"explanation\": \"Strong demand, about 52 INR per kg.\"}\n```",
	}}
	svc := NewService(model, seedStore())

	got := svc.SuggestPrice(context.Background(), "tomato", "pune", "kg")
	if got.SuggestedPrice != 52.5 {
		t.Fatalf("expected model price, got %+v", got)
	}
	if got.Confidence != 1.0 {
		t.Fatalf("expected confidence clamped to 1.0, got %g", got.Confidence)
	}
}

func TestSuggestPriceRetriesThenFallsBack(t *testing.T) {
	model := &scriptedModel{err: errors.New("quota exceeded")}
	svc := NewService(model, seedStore())

	got := svc.SuggestPrice(context.Background(), "tomato", "mumbai", "kg")
	if model.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", model.calls)
	}
	// 45 base for tomato with the 1.3 metro multiplier.
	if got.SuggestedPrice != 58.5 {
		t.Fatalf("expected fallback price 58.5, got %g", got.SuggestedPrice)
	}
	if got.Confidence != 0.6 {
		t.Fatalf("expected fallback confidence 0.6, got %g", got.Confidence)
	}
}

func TestSuggestPriceFallbackWithoutModel(t *testing.T) {
	svc := NewService(nil, seedStore())

	got := svc.SuggestPrice(context.Background(), "rice", "smalltown", "kg")
	if got.SuggestedPrice != 28 {
		t.Fatalf("expected base rice price 28, got %g", got.SuggestedPrice)
	}

	got = svc.SuggestPrice(context.Background(), "dragonfruit", "nowhere", "kg")
	if got.SuggestedPrice != 30 {
		t.Fatalf("expected default price 30 for unknown crop, got %g", got.SuggestedPrice)
	}
}

func TestSuggestPriceMalformedReplyFallsBackImmediately(t *testing.T) {
	// A garbled first answer must not be retried: the second, valid
	// reply stays unused and the market-average estimate wins.
	model := &scriptedModel{replies: []string{
		`not json at all`,
		`{"suggested_price": 999, "confidence": 0.9, "explanation": "way off"}`,
	}}
	svc := NewService(model, seedStore())

	got := svc.SuggestPrice(context.Background(), "tomato", "mumbai", "kg")
	if model.calls != 1 {
		t.Fatalf("expected a single model call, got %d", model.calls)
	}
	if got.SuggestedPrice != 58.5 || got.Confidence != 0.6 {
		t.Fatalf("expected the fallback estimate, got %+v", got)
	}
}

func TestSuggestPriceMissingFieldFallsBack(t *testing.T) {
	cases := []struct{ name, reply string }{
		{"no confidence", `{"suggested_price": 40, "explanation": "about 40 INR per kg"}`},
		{"no price", `{"confidence": 0.9, "explanation": "about 40 INR per kg"}`},
		{"no explanation", `{"suggested_price": 40, "confidence": 0.9}`},
	}
	for _, c := range cases {
		model := &scriptedModel{replies: []string{c.reply}}
		svc := NewService(model, seedStore())

		got := svc.SuggestPrice(context.Background(), "tomato", "mumbai", "kg")
		if model.calls != 1 {
			t.Errorf("%s: expected a single model call, got %d", c.name, model.calls)
		}
		if got.SuggestedPrice != 58.5 || got.Confidence != 0.6 {
			t.Errorf("%s: expected the fallback estimate, got %+v", c.name, got)
		}
	}
}

func TestRecommendFallsBackToStaticList(t *testing.T) {
	svc := NewService(nil, seedStore())

	set, err := svc.Recommend(context.Background(), "buyer1")
	if err != nil {
		t.Fatalf("recommend failed: %v", err)
	}
	if len(set.Recommendations) != 3 {
		t.Fatalf("expected 3 static recommendations, got %d", len(set.Recommendations))
	}
	if set.Recommendations[0].CropName != "Tomato" {
		t.Fatalf("unexpected first recommendation: %+v", set.Recommendations[0])
	}
	if set.UserLocation != "Mumbai" {
		t.Fatalf("expected buyer location, got %q", set.UserLocation)
	}
}

func TestRecommendJoinsLiveListings(t *testing.T) {
	model := &scriptedModel{replies: []string{
		`{"recommendations": [{"crop_name": "Tomato", "reason": "in season", "season_score": 0.9, "nutrition_benefits": "vitamin C", "estimated_price_range": "₹30-50 per kg"}]}`,
	}}
	svc := NewService(model, seedStore())

	set, err := svc.Recommend(context.Background(), "buyer1")
	if err != nil {
		t.Fatalf("recommend failed: %v", err)
	}
	if len(set.AvailableCrops) != 1 {
		t.Fatalf("expected the tomato listing to match, got %d entries", len(set.AvailableCrops))
	}
	if set.AvailableCrops[0]["crop_id"] != "tomato1" {
		t.Fatalf("unexpected listing: %v", set.AvailableCrops[0])
	}
}

func TestRecommendUnknownUser(t *testing.T) {
	svc := NewService(nil, seedStore())
	if _, err := svc.Recommend(context.Background(), "ghost"); err == nil {
		t.Fatal("expected an error for an unknown user")
	}
}

func TestSeasonalForCoversAllMonths(t *testing.T) {
	for month := time.January; month <= time.December; month++ {
		if len(seasonalFor(month)) == 0 {
			t.Fatalf("no seasonal crops for %s", month)
		}
	}
}

func TestVoiceSearchParsedQueryRanking(t *testing.T) {
	model := &scriptedModel{replies: []string{
		`{"crops": ["tomato", "rice"], "location": "pune", "quantity": null, "price_range": null, "quality_filters": [], "search_intent": "find produce in pune"}`,
	}}
	svc := NewService(model, seedStore())

	res := svc.VoiceSearch(context.Background(), "tomatoes and rice from pune")
	if res.Fallback {
		t.Fatal("expected the parsed path")
	}
	if res.TotalResults != 2 {
		t.Fatalf("expected both listings to match, got %d", res.TotalResults)
	}
	if res.Matches[0]["relevance_score"].(int) < res.Matches[1]["relevance_score"].(int) {
		t.Fatalf("results not sorted by relevance: %v", res.Matches)
	}
}

func TestVoiceSearchFallbackWordMatch(t *testing.T) {
	svc := NewService(nil, seedStore())

	res := svc.VoiceSearch(context.Background(), "fresh tomato please")
	if !res.Fallback {
		t.Fatal("expected the fallback path")
	}
	if res.TotalResults != 1 || res.Matches[0]["name"] != "Tomato" {
		t.Fatalf("unexpected matches: %v", res.Matches)
	}
}

func TestChatFallbackKeywords(t *testing.T) {
	svc := NewService(nil, seedStore())

	cases := []struct{ message, language, wantKeyword string }{
		{"what price should I set", "en", "price"},
		{"how do I sell my wheat", "en", "sell"},
		{"I want to buy onions", "en", "buy"},
		{"help me out", "en", "help"},
		{"something unrelated", "en", "default"},
		{"price please", "hi", "price"},
		{"price please", "ta", "price"},
	}
	for _, c := range cases {
		got := svc.Chat(context.Background(), c.message, map[string]interface{}{"language": c.language})
		if got != fallbackResponses[c.language][c.wantKeyword] {
			t.Errorf("Chat(%q, %s): expected the %q response, got %q", c.message, c.language, c.wantKeyword, got)
		}
	}
}

func TestChatRetriesBeforeFallback(t *testing.T) {
	model := &scriptedModel{err: errors.New("unavailable")}
	svc := NewService(model, seedStore())

	got := svc.Chat(context.Background(), "random question", nil)
	if model.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", model.calls)
	}
	if got != fallbackResponses["en"]["default"] {
		t.Fatalf("expected the default fallback, got %q", got)
	}
}

func TestChatUnknownLanguageUsesEnglish(t *testing.T) {
	svc := NewService(nil, seedStore())
	got := svc.Chat(context.Background(), "price?", map[string]interface{}{"language": "fr"})
	if got != fallbackResponses["en"]["price"] {
		t.Fatalf("expected the English price response, got %q", got)
	}
}
