package advisory

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"farm2market/rdx"
	"farm2market/utils"

	"github.com/julienschmidt/httprouter"
)

const priceCacheTTL = time.Hour

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

func priceCacheKey(cropName, location string) string {
	return "price:" + strings.ToLower(cropName) + ":" + strings.ToLower(location)
}

// GetPriceSuggestion serves a cached market estimate for a crop in a
// location, asking the model on a cache miss.
func (h *Handler) GetPriceSuggestion(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	cropName := q.Get("crop_name")
	location := q.Get("location")
	unit := q.Get("unit")
	if cropName == "" || location == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "crop_name and location are required")
		return
	}

	key := priceCacheKey(cropName, location)
	if cached, ok := rdx.RdxGet(r.Context(), key); ok {
		var suggestion PriceSuggestion
		if json.Unmarshal([]byte(cached), &suggestion) == nil {
			utils.RespondWithJSON(w, http.StatusOK, suggestion)
			return
		}
	}

	suggestion := h.Service.SuggestPrice(r.Context(), cropName, location, unit)
	if raw, err := json.Marshal(suggestion); err == nil {
		rdx.RdxSet(r.Context(), key, string(raw), priceCacheTTL)
	}

	utils.RespondWithJSON(w, http.StatusOK, suggestion)
}

func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	set, err := h.Service.Recommend(r.Context(), ps.ByName("userid"))
	if err != nil {
		utils.RespondWithFailure(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"ai_recommendations": set.Recommendations,
		"available_crops":    set.AvailableCrops,
		"user_location":      set.UserLocation,
	})
}

func (h *Handler) VoiceSearch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseForm(); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid form")
		return
	}
	query := r.FormValue("query")
	if strings.TrimSpace(query) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "query is required")
		return
	}

	result := h.Service.VoiceSearch(r.Context(), query)

	payload := utils.M{
		"success":        true,
		"original_query": query,
		"matching_crops": result.Matches,
		"total_results":  result.TotalResults,
	}
	if result.Fallback {
		payload["fallback"] = true
	} else {
		payload["parsed_query"] = result.ParsedQuery
	}
	utils.RespondWithJSON(w, http.StatusOK, payload)
}

type chatRequest struct {
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context"`
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{
			"success":  false,
			"error":    "Message cannot be empty",
			"response": "Please enter a message to get help.",
		})
		return
	}

	response := h.Service.Chat(r.Context(), req.Message, req.Context)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":   true,
		"response":  response,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
