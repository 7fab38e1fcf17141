package ratings

import (
	"net/http"

	"farm2market/globals"
	"farm2market/store"
	"farm2market/utils"

	"github.com/julienschmidt/httprouter"
)

const recentReviewLimit = 5

type Handler struct {
	Service *Service
	Store   *store.Store
}

func NewHandler(s *store.Store) *Handler {
	return &Handler{Service: NewService(s), Store: s}
}

// SubmitRating records the authenticated buyer's rating of a farmer.
func (h *Handler) SubmitRating(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	buyerID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok || buyerID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid form")
		return
	}

	farmerID := r.FormValue("farmer_id")
	orderID := r.FormValue("order_id")
	rating := utils.ParseFloat(r.FormValue("rating"))
	review := r.FormValue("review")
	if farmerID == "" || orderID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "farmer_id and order_id are required")
		return
	}

	entry, err := h.Service.Submit(farmerID, buyerID, orderID, rating, review)
	if err != nil {
		utils.RespondWithFailure(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"message": "Rating submitted successfully",
		"rating":  entry,
	})
}

// GetFarmerRatings returns aggregate stats plus the newest reviews with
// buyer names resolved.
func (h *Handler) GetFarmerRatings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	farmerID := ps.ByName("farmerid")

	stats := h.Service.Stats(farmerID)
	recent := h.Service.Recent(farmerID, recentReviewLimit)

	reviews := make([]utils.M, 0, len(recent))
	for _, rt := range recent {
		buyerName := ""
		if buyer, ok := h.Store.Users.Get(rt.BuyerID); ok {
			buyerName = buyer.FullName
		}
		reviews = append(reviews, utils.M{
			"rating":     rt.Rating,
			"review":     rt.Review,
			"buyer_name": buyerName,
			"created_at": rt.CreatedAt,
		})
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":        true,
		"farmer_id":      farmerID,
		"stats":          stats,
		"recent_reviews": reviews,
		"total_reviews":  stats.TotalRatings,
	})
}
