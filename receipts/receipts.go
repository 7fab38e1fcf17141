// Package receipts renders downloadable PDF receipts for confirmed
// orders, carrying a signed QR code for offline verification.
package receipts

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"

	"farm2market/errs"
	"farm2market/globals"
	"farm2market/store"
	"farm2market/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

type Handler struct {
	Store *store.Store
}

func NewHandler(s *store.Store) *Handler {
	return &Handler{Store: s}
}

// signPayload binds the QR contents to the order so a reprinted
// receipt can be checked against the marketplace record.
func signPayload(orderID, buyerID string) string {
	mac := hmac.New(sha256.New, globals.JwtSecret)
	fmt.Fprintf(mac, "%s|%s", orderID, buyerID)
	return hex.EncodeToString(mac.Sum(nil))
}

// DownloadReceipt streams the order's receipt as a PDF. Only the buyer
// or the farmer on the order may fetch it.
func (h *Handler) DownloadReceipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	orderID := ps.ByName("orderid")
	order, ok := h.Store.Orders.Get(orderID)
	if !ok {
		utils.RespondWithFailure(w, errs.NotFound("order"))
		return
	}
	if order.BuyerID != userID && order.FarmerID != userID {
		utils.RespondWithError(w, http.StatusForbidden, "You are not part of this order")
		return
	}

	buyerName := order.BuyerID
	if buyer, ok := h.Store.Users.Get(order.BuyerID); ok {
		buyerName = buyer.FullName
	}
	farmerName := order.FarmerID
	if farmer, ok := h.Store.Users.Get(order.FarmerID); ok {
		farmerName = farmer.FullName
	}

	qrData := fmt.Sprintf("order:%s|sig:%s", order.OrderID, signPayload(order.OrderID, order.BuyerID))
	qrPNG, err := qrcode.Encode(qrData, qrcode.Medium, 256)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 12, "Farm2Market Order Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 12)
	rows := [][2]string{
		{"Order ID", order.OrderID},
		{"Status", order.Status},
		{"Crop", order.CropName},
		{"Quantity", fmt.Sprintf("%g %s", order.Quantity, order.Unit)},
		{"Total Price", fmt.Sprintf("INR %.2f", order.TotalPrice)},
		{"Buyer", buyerName},
		{"Farmer", farmerName},
		{"Date", order.CreatedAt.Format("02 Jan 2006 15:04")},
	}
	for _, row := range rows {
		pdf.CellFormat(50, 8, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 8, row[1], "", 1, "L", false, 0, "")
	}

	pdf.Ln(6)
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("receipt-qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("receipt-qr", 80, pdf.GetY(), 50, 50, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate receipt")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", order.OrderID))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
