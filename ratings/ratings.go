// Package ratings keeps per-farmer review scores and the aggregate
// statistics shown on farmer profiles.
package ratings

import (
	"math"
	"sort"

	"farm2market/errs"
	"farm2market/models"
	"farm2market/store"
)

type Service struct {
	store *store.Store
}

func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

func ratingKey(farmerID, buyerID, orderID string) string {
	return farmerID + "_" + buyerID + "_" + orderID
}

// Submit records a buyer's rating of a farmer for one order. A repeat
// submission for the same (farmer, buyer, order) replaces the earlier
// score instead of adding a second record.
func (s *Service) Submit(farmerID, buyerID, orderID string, rating float64, review string) (models.FarmerRating, error) {
	if rating < 1 || rating > 5 {
		return models.FarmerRating{}, errs.Invalid("rating must be between 1 and 5")
	}
	if _, ok := s.store.Users.Get(farmerID); !ok {
		return models.FarmerRating{}, errs.NotFound("farmer")
	}
	if _, ok := s.store.Users.Get(buyerID); !ok {
		return models.FarmerRating{}, errs.NotFound("buyer")
	}
	if _, ok := s.store.Orders.Get(orderID); !ok {
		return models.FarmerRating{}, errs.NotFound("order")
	}

	key := ratingKey(farmerID, buyerID, orderID)
	entry := models.FarmerRating{
		RatingID:  key,
		FarmerID:  farmerID,
		BuyerID:   buyerID,
		OrderID:   orderID,
		Rating:    rating,
		Review:    review,
		CreatedAt: s.store.Now(),
	}
	if prev, ok := s.store.Ratings.Get(key); ok {
		entry.CreatedAt = prev.CreatedAt
	}
	s.store.Ratings.Insert(key, entry)
	return entry, nil
}

// Stats aggregates a farmer's ratings: mean score rounded to two
// decimals and a whole-star distribution. Fractional scores count
// toward their truncated bucket.
func (s *Service) Stats(farmerID string) models.RatingStats {
	ratings := s.store.Ratings.Scan(func(r models.FarmerRating) bool { return r.FarmerID == farmerID })

	stats := models.RatingStats{
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}
	if len(ratings) == 0 {
		return stats
	}

	var sum float64
	for _, r := range ratings {
		sum += r.Rating
		bucket := int(r.Rating)
		if bucket < 1 {
			bucket = 1
		} else if bucket > 5 {
			bucket = 5
		}
		stats.RatingDistribution[bucket]++
	}
	stats.TotalRatings = len(ratings)
	stats.AverageRating = math.Round(sum/float64(len(ratings))*100) / 100
	return stats
}

// Recent returns the farmer's newest ratings, most recent first.
func (s *Service) Recent(farmerID string, limit int) []models.FarmerRating {
	ratings := s.store.Ratings.Scan(func(r models.FarmerRating) bool { return r.FarmerID == farmerID })
	sort.Slice(ratings, func(i, j int) bool { return ratings[i].CreatedAt.After(ratings[j].CreatedAt) })
	if limit > 0 && len(ratings) > limit {
		ratings = ratings[:limit]
	}
	return ratings
}
