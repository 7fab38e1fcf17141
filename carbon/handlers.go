package carbon

import (
	"net/http"

	"farm2market/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

// CalculateFootprint records the footprint of a purchase and returns
// the estimate with its impact message.
func (h *Handler) CalculateFootprint(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseForm(); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid form")
		return
	}

	userID := r.FormValue("user_id")
	cropID := r.FormValue("crop_id")
	quantity := utils.ParseFloat(r.FormValue("quantity"))
	transportMode := r.FormValue("transport_mode")
	if userID == "" || cropID == "" || transportMode == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "user_id, crop_id and transport_mode are required")
		return
	}

	est, err := h.Service.Calculate(userID, cropID, quantity, transportMode)
	if err != nil {
		utils.RespondWithFailure(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"carbon_footprint": utils.M{
			"total_emissions_kg":   est.TotalEmissions,
			"carbon_saved_kg":      est.CarbonSaved,
			"distance_km":          est.DistanceKm,
			"transport_mode":       transportMode,
			"farmer_location":      est.FarmerLocation,
			"buyer_location":       est.BuyerLocation,
			"environmental_impact": est.ImpactMessage,
			"footprint_id":         est.Record.RecordID,
		},
	})
}

// GetHistory summarizes the user's saved footprints.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	hist := h.Service.HistoryFor(ps.ByName("userid"))

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"total_carbon_saved": hist.TotalCarbonSaved,
		"total_purchases":    hist.TotalPurchases,
		"average_distance":   hist.AverageDistance,
		"recent_footprints":  hist.Recent,
	})
}
