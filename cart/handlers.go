package cart

import (
	"net/http"
	"sort"

	"farm2market/globals"
	"farm2market/models"
	"farm2market/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	Manager *Manager
}

func NewHandler(m *Manager) *Handler {
	return &Handler{Manager: m}
}

func buyerFromContext(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(globals.UserIDKey).(string)
	return id, ok && id != ""
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	buyerID, ok := buyerFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid form")
		return
	}

	cropID := r.FormValue("crop_id")
	quantity := utils.ParseFloat(r.FormValue("quantity"))
	if cropID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input data")
		return
	}

	res, err := h.Manager.Add(buyerID, cropID, quantity)
	if err != nil {
		utils.RespondWithFailure(w, err)
		return
	}

	message := "Added to cart"
	if res.Merged {
		message = "Updated cart quantity"
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":    true,
		"message":    message,
		"cart_count": res.CartCount,
		"item_total": res.ItemTotal,
	})
}

func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	buyerID, ok := buyerFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if !h.Manager.Remove(buyerID, ps.ByName("cropid")) {
		utils.RespondWithError(w, http.StatusNotFound, "Item not found in cart")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Item removed from cart"})
}

func (h *Handler) GetCartCount(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	buyerID, ok := buyerFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":    true,
		"cart_count": h.Manager.Count(buyerID),
	})
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	buyerID, ok := buyerFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	lines, total := h.Manager.Lines(buyerID)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":     true,
		"cart_items":  lines,
		"total_price": total,
	})
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	buyerID, ok := buyerFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	orders, total := h.Manager.Checkout(buyerID)
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"success":     true,
		"orders":      orders,
		"total_price": total,
	})
}

// GetOrders lists orders where the caller is either side of the trade.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := buyerFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	orders := h.Manager.store.Orders.Scan(func(o models.Order) bool {
		return o.BuyerID == userID || o.FarmerID == userID
	})
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "orders": orders})
}
