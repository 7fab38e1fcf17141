// Package carbon estimates the transport footprint of a purchase and
// the saving over a conventional long-haul supply chain.
package carbon

import (
	"math"
	"sort"
	"strings"

	"farm2market/errs"
	"farm2market/models"
	"farm2market/store"
)

// Emission factors in kg CO2 per km per kg of produce.
var transportEmissions = map[string]float64{
	"truck":            0.2,
	"bike":             0.01,
	"walking":          0.0,
	"public_transport": 0.05,
	"own_vehicle":      0.15,
}

const defaultEmissionFactor = 0.2

const (
	conventionalDistanceKm     = 500
	conventionalEmissionFactor = 0.25
)

type cityPair struct{ a, b string }

var cityDistances = map[cityPair]float64{
	{"mumbai", "pune"}:        150,
	{"delhi", "gurgaon"}:      30,
	{"bangalore", "mysore"}:   150,
	{"chennai", "coimbatore"}: 500,
}

type Service struct {
	store *store.Store
}

func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// Estimate is the footprint of one purchase.
type Estimate struct {
	Record         models.CarbonRecord
	TotalEmissions float64
	CarbonSaved    float64
	DistanceKm     float64
	FarmerLocation string
	BuyerLocation  string
	ImpactMessage  string
}

// Calculate records the footprint of moving quantity kg of a crop to
// the buyer and compares it with a 500 km conventional supply chain.
func (s *Service) Calculate(userID, cropID string, quantity float64, transportMode string) (Estimate, error) {
	user, ok := s.store.Users.Get(userID)
	if !ok {
		return Estimate{}, errs.NotFound("user")
	}
	crop, ok := s.store.Crops.Get(cropID)
	if !ok {
		return Estimate{}, errs.NotFound("crop")
	}
	if quantity <= 0 {
		return Estimate{}, errs.Invalid("quantity must be positive")
	}

	distance := EstimateDistance(user.Location, crop.Location)

	factor, ok := transportEmissions[transportMode]
	if !ok {
		factor = defaultEmissionFactor
	}

	totalEmissions := distance * quantity * factor
	conventional := conventionalDistanceKm * quantity * conventionalEmissionFactor
	saved := math.Max(0, conventional-totalEmissions)

	record := models.CarbonRecord{
		RecordID:       s.store.NewID(),
		UserID:         userID,
		CropID:         cropID,
		Quantity:       quantity,
		DistanceKm:     distance,
		TransportMode:  transportMode,
		TotalEmissions: round3(totalEmissions),
		CarbonSaved:    round3(saved),
		CalculatedAt:   s.store.Now(),
	}
	s.store.Carbon.Insert(record.RecordID, record)

	return Estimate{
		Record:         record,
		TotalEmissions: record.TotalEmissions,
		CarbonSaved:    record.CarbonSaved,
		DistanceKm:     distance,
		FarmerLocation: crop.Location,
		BuyerLocation:  user.Location,
		ImpactMessage:  ImpactMessage(saved),
	}, nil
}

// EstimateDistance guesses the km between two named locations from a
// small city table. Unknown pairs get a stock inter-city distance.
func EstimateDistance(loc1, loc2 string) float64 {
	if loc1 == "" || loc2 == "" {
		return 50
	}

	a := strings.ToLower(loc1)
	b := strings.ToLower(loc2)

	if d, ok := cityDistances[cityPair{a, b}]; ok {
		return d
	}
	if d, ok := cityDistances[cityPair{b, a}]; ok {
		return d
	}
	if a == b {
		return 5
	}
	return 100
}

// ImpactMessage buckets the saving into a user-facing blurb.
func ImpactMessage(carbonSaved float64) string {
	switch {
	case carbonSaved > 10:
		return "🌱 Excellent choice! You've significantly reduced your carbon footprint."
	case carbonSaved > 5:
		return "🌿 Good impact! You're contributing to sustainable agriculture."
	case carbonSaved > 1:
		return "♻️ Positive impact! Every small step helps the environment."
	default:
		return "🌍 Consider choosing local farmers to reduce environmental impact."
	}
}

// History summarizes a user's recorded footprints.
type History struct {
	TotalCarbonSaved float64
	TotalPurchases   int
	AverageDistance  float64
	Recent           []models.CarbonRecord
}

// HistoryFor aggregates the user's footprints: totals, mean distance
// and the ten most recent records.
func (s *Service) HistoryFor(userID string) History {
	records := s.store.Carbon.Scan(func(r models.CarbonRecord) bool { return r.UserID == userID })

	var saved, distance float64
	for _, r := range records {
		saved += r.CarbonSaved
		distance += r.DistanceKm
	}

	total := len(records)
	avg := 0.0
	if total > 0 {
		avg = math.Round(distance/float64(total)*10) / 10
	}

	sort.Slice(records, func(i, j int) bool { return records[i].CalculatedAt.After(records[j].CalculatedAt) })
	if len(records) > 10 {
		records = records[:10]
	}

	return History{
		TotalCarbonSaved: math.Round(saved*100) / 100,
		TotalPurchases:   total,
		AverageDistance:  avg,
		Recent:           records,
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
