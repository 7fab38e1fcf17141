// Package crops manages the marketplace catalogue: farmer listings,
// filtered search for buyers, and the cached catalogue view.
package crops

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"farm2market/errs"
	"farm2market/filedrop"
	"farm2market/globals"
	"farm2market/models"
	"farm2market/rdx"
	"farm2market/store"
	"farm2market/utils"

	"github.com/julienschmidt/httprouter"
)

const (
	catalogueCacheKey = "crop_catalogue"
	catalogueCacheTTL = 2 * time.Hour
)

type Handler struct {
	Store *store.Store
	Files *filedrop.Saver
}

func NewHandler(s *store.Store, files *filedrop.Saver) *Handler {
	return &Handler{Store: s, Files: files}
}

func farmerFromContext(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(globals.UserIDKey).(string)
	return id, ok && id != ""
}

// AddCrop creates a listing for the authenticated farmer. The photo is
// optional; when present it is stored with a thumbnail.
func (h *Handler) AddCrop(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	farmerID, ok := farmerFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	farmer, ok := h.Store.Users.Get(farmerID)
	if !ok || farmer.Role != "farmer" {
		utils.RespondWithError(w, http.StatusForbidden, "Only farmers can list crops")
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	quantity := utils.ParseFloat(r.FormValue("quantity"))
	unit := r.FormValue("unit")
	price := utils.ParseFloat(r.FormValue("price"))
	location := r.FormValue("location")
	if name == "" || unit == "" || quantity <= 0 || price <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input data")
		return
	}

	crop := models.Crop{
		CropID:    h.Store.NewID(),
		FarmerID:  farmerID,
		Name:      name,
		Quantity:  quantity,
		Unit:      unit,
		Location:  location,
		Price:     price,
		CreatedAt: h.Store.Now(),
		UpdatedAt: h.Store.Now(),
	}

	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		imageURL, thumbURL, err := h.Files.SaveCropImage(file, header)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		crop.ImageURL = imageURL
		crop.ThumbURL = thumbURL
	}

	h.Store.Crops.Insert(crop.CropID, crop)
	rdx.RdxDel(r.Context(), catalogueCacheKey)

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"success": true,
		"message": "Crop listed successfully",
		"crop":    crop,
	})
}

// GetCrops lists the catalogue. Without filters it serves the cached
// catalogue; with filters it scans live. Matching is case-insensitive
// substring on name and location.
func (h *Handler) GetCrops(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	search := q.Get("search")
	location := q.Get("location")
	minPrice := utils.ParseFloat(q.Get("min_price"))
	maxPrice := utils.ParseFloat(q.Get("max_price"))

	unfiltered := search == "" && location == "" && minPrice == 0 && maxPrice == 0

	if unfiltered {
		if cached, ok := rdx.RdxGet(r.Context(), catalogueCacheKey); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(cached))
			return
		}
	}

	crops := h.listings(search, location, minPrice, maxPrice)
	payload := utils.M{"success": true, "crops": crops}

	if unfiltered {
		if raw, err := json.Marshal(payload); err == nil {
			rdx.RdxSet(r.Context(), catalogueCacheKey, string(raw), catalogueCacheTTL)
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, payload)
}

func (h *Handler) listings(search, location string, minPrice, maxPrice float64) []models.CropWithFarmer {
	crops := h.Store.Crops.Scan(func(c models.Crop) bool {
		if search != "" && !utils.ContainsIgnoreCase(c.Name, search) {
			return false
		}
		if location != "" && !utils.ContainsIgnoreCase(c.Location, location) {
			return false
		}
		if minPrice > 0 && c.Price < minPrice {
			return false
		}
		if maxPrice > 0 && c.Price > maxPrice {
			return false
		}
		return true
	})
	sort.Slice(crops, func(i, j int) bool { return crops[i].CreatedAt.After(crops[j].CreatedAt) })

	out := make([]models.CropWithFarmer, 0, len(crops))
	for _, c := range crops {
		entry := models.CropWithFarmer{Crop: c}
		if farmer, ok := h.Store.Users.Get(c.FarmerID); ok {
			entry.FarmerName = farmer.FullName
		}
		out = append(out, entry)
	}
	return out
}

func (h *Handler) GetCrop(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	crop, ok := h.Store.Crops.Get(ps.ByName("cropid"))
	if !ok {
		utils.RespondWithFailure(w, errs.NotFound("crop"))
		return
	}

	entry := models.CropWithFarmer{Crop: crop}
	if farmer, ok := h.Store.Users.Get(crop.FarmerID); ok {
		entry.FarmerName = farmer.FullName
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "crop": entry})
}

// UpdateCrop lets the owning farmer change the listing's mutable
// fields: name, quantity, unit, location, price and image.
func (h *Handler) UpdateCrop(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	farmerID, ok := farmerFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	crop, ok := h.Store.Crops.Get(ps.ByName("cropid"))
	if !ok {
		utils.RespondWithFailure(w, errs.NotFound("crop"))
		return
	}
	if crop.FarmerID != farmerID {
		utils.RespondWithError(w, http.StatusForbidden, "You can only update your own crops")
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	// Fixed update contract: anything outside the mutable set is an
	// error, not a silent no-op.
	mutable := map[string]bool{"name": true, "quantity": true, "unit": true, "location": true, "price": true}
	if r.MultipartForm != nil {
		for field := range r.MultipartForm.Value {
			if !mutable[field] {
				utils.RespondWithError(w, http.StatusBadRequest, "Unknown field: "+field)
				return
			}
		}
	}

	if v := strings.TrimSpace(r.FormValue("name")); v != "" {
		crop.Name = v
	}
	if v := r.FormValue("quantity"); v != "" {
		if q := utils.ParseFloat(v); q >= 0 {
			crop.Quantity = q
		}
	}
	if v := r.FormValue("unit"); v != "" {
		crop.Unit = v
	}
	if v := r.FormValue("location"); v != "" {
		crop.Location = v
	}
	if v := r.FormValue("price"); v != "" {
		if p := utils.ParseFloat(v); p > 0 {
			crop.Price = p
		}
	}
	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		imageURL, thumbURL, err := h.Files.SaveCropImage(file, header)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		crop.ImageURL = imageURL
		crop.ThumbURL = thumbURL
	}
	crop.UpdatedAt = h.Store.Now()

	h.Store.Crops.Insert(crop.CropID, crop)
	rdx.RdxDel(r.Context(), catalogueCacheKey)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"message": "Crop updated successfully",
		"crop":    crop,
	})
}

// DeleteCrop removes the listing and any cart entries that reference
// it, so stale reservations cannot survive the listing.
func (h *Handler) DeleteCrop(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	farmerID, ok := farmerFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	cropID := ps.ByName("cropid")
	crop, ok := h.Store.Crops.Get(cropID)
	if !ok {
		utils.RespondWithFailure(w, errs.NotFound("crop"))
		return
	}
	if crop.FarmerID != farmerID {
		utils.RespondWithError(w, http.StatusForbidden, "You can only delete your own crops")
		return
	}

	h.Store.Crops.Delete(cropID)
	for key := range h.Store.Cart.ScanIDs(func(it models.CartItem) bool { return it.CropID == cropID }) {
		h.Store.Cart.Delete(key)
	}
	rdx.RdxDel(r.Context(), catalogueCacheKey)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"message": "Crop deleted successfully",
	})
}

// GetMyCrops lists the authenticated farmer's own listings.
func (h *Handler) GetMyCrops(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	farmerID, ok := farmerFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	crops := h.Store.Crops.Scan(func(c models.Crop) bool { return c.FarmerID == farmerID })
	sort.Slice(crops, func(i, j int) bool { return crops[i].CreatedAt.After(crops[j].CreatedAt) })

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "crops": crops})
}
