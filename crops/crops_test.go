package crops

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"farm2market/filedrop"
	"farm2market/globals"
	"farm2market/models"
	"farm2market/store"

	"github.com/julienschmidt/httprouter"
)

func seedHandler(t *testing.T) (*store.Store, *Handler) {
	t.Helper()
	s := store.New()
	s.Now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	s.Users.Insert("farmer1", models.User{UserID: "farmer1", FullName: "Ravi Kumar", Role: "farmer"})
	s.Users.Insert("buyer1", models.User{UserID: "buyer1", FullName: "Anita Shah", Role: "buyer"})

	s.Crops.Insert("rice1", models.Crop{
		CropID: "rice1", FarmerID: "farmer1", Name: "Basmati Rice",
		Quantity: 100, Unit: "kg", Location: "Pune", Price: 80,
		CreatedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Crops.Insert("tomato1", models.Crop{
		CropID: "tomato1", FarmerID: "farmer1", Name: "Tomato",
		Quantity: 50, Unit: "kg", Location: "Mumbai", Price: 45,
		CreatedAt: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC),
	})

	return s, NewHandler(s, filedrop.New(t.TempDir()))
}

func asUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), globals.UserIDKey, userID))
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestGetCropsFilters(t *testing.T) {
	_, h := seedHandler(t)

	cases := []struct {
		query string
		want  int
	}{
		{"", 2},
		{"search=rice", 1},
		{"search=RICE", 1},
		{"location=mum", 1},
		{"min_price=50", 1},
		{"max_price=50", 1},
		{"search=rice&location=mumbai", 0},
	}
	for _, c := range cases {
		r := httptest.NewRequest(http.MethodGet, "/api/crops?"+c.query, nil)
		w := httptest.NewRecorder()
		h.GetCrops(w, r, nil)

		var body struct {
			Success bool                    `json:"success"`
			Crops   []models.CropWithFarmer `json:"crops"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("query %q: bad response: %v", c.query, err)
		}
		if len(body.Crops) != c.want {
			t.Errorf("query %q: expected %d crops, got %d", c.query, c.want, len(body.Crops))
		}
	}
}

func TestGetCropsJoinsFarmerName(t *testing.T) {
	_, h := seedHandler(t)

	r := httptest.NewRequest(http.MethodGet, "/api/crops?search=tomato", nil)
	w := httptest.NewRecorder()
	h.GetCrops(w, r, nil)

	var body struct {
		Crops []models.CropWithFarmer `json:"crops"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if body.Crops[0].FarmerName != "Ravi Kumar" {
		t.Fatalf("expected farmer name joined, got %q", body.Crops[0].FarmerName)
	}
}

func TestAddCropRequiresFarmerRole(t *testing.T) {
	_, h := seedHandler(t)

	buf, ct := multipartBody(t, map[string]string{
		"name": "Onion", "quantity": "30", "unit": "kg", "price": "38", "location": "Pune",
	})
	r := asUser(httptest.NewRequest(http.MethodPost, "/api/crops", buf), "buyer1")
	r.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h.AddCrop(w, r, nil)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a buyer, got %d", w.Code)
	}
}

func TestAddCrop(t *testing.T) {
	s, h := seedHandler(t)

	buf, ct := multipartBody(t, map[string]string{
		"name": "Onion", "quantity": "30", "unit": "kg", "price": "38", "location": "Pune",
	})
	r := asUser(httptest.NewRequest(http.MethodPost, "/api/crops", buf), "farmer1")
	r.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h.AddCrop(w, r, nil)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if s.Crops.Len() != 3 {
		t.Fatalf("expected 3 crops, got %d", s.Crops.Len())
	}
}

func TestUpdateCropMutableFields(t *testing.T) {
	s, h := seedHandler(t)

	buf, ct := multipartBody(t, map[string]string{"price": "90", "quantity": "80"})
	r := asUser(httptest.NewRequest(http.MethodPut, "/api/crops/rice1", buf), "farmer1")
	r.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h.UpdateCrop(w, r, httprouter.Params{{Key: "cropid", Value: "rice1"}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	crop, _ := s.Crops.Get("rice1")
	if crop.Price != 90 || crop.Quantity != 80 {
		t.Fatalf("update not applied: %+v", crop)
	}
	if crop.Name != "Basmati Rice" {
		t.Fatalf("untouched field changed: %+v", crop)
	}
}

func TestUpdateCropRejectsUnknownField(t *testing.T) {
	s, h := seedHandler(t)

	buf, ct := multipartBody(t, map[string]string{"price": "90", "farmer_id": "farmer2"})
	r := asUser(httptest.NewRequest(http.MethodPut, "/api/crops/rice1", buf), "farmer1")
	r.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h.UpdateCrop(w, r, httprouter.Params{{Key: "cropid", Value: "rice1"}})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", w.Code)
	}
	crop, _ := s.Crops.Get("rice1")
	if crop.Price != 80 || crop.FarmerID != "farmer1" {
		t.Fatalf("rejected update must not apply partially: %+v", crop)
	}
}

func TestUpdateCropOwnershipEnforced(t *testing.T) {
	s, h := seedHandler(t)
	s.Users.Insert("farmer2", models.User{UserID: "farmer2", Role: "farmer"})

	buf, ct := multipartBody(t, map[string]string{"price": "10"})
	r := asUser(httptest.NewRequest(http.MethodPut, "/api/crops/rice1", buf), "farmer2")
	r.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h.UpdateCrop(w, r, httprouter.Params{{Key: "cropid", Value: "rice1"}})

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another farmer, got %d", w.Code)
	}
}

func TestDeleteCropCascadesToCarts(t *testing.T) {
	s, h := seedHandler(t)
	s.Cart.Insert("buyer1_rice1", models.CartItem{BuyerID: "buyer1", CropID: "rice1", Quantity: 10})
	s.Cart.Insert("buyer1_tomato1", models.CartItem{BuyerID: "buyer1", CropID: "tomato1", Quantity: 5})

	r := asUser(httptest.NewRequest(http.MethodDelete, "/api/crops/rice1", nil), "farmer1")
	w := httptest.NewRecorder()
	h.DeleteCrop(w, r, httprouter.Params{{Key: "cropid", Value: "rice1"}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if _, ok := s.Crops.Get("rice1"); ok {
		t.Fatal("crop not deleted")
	}
	if _, ok := s.Cart.Get("buyer1_rice1"); ok {
		t.Fatal("cart entry for the deleted crop must be removed")
	}
	if _, ok := s.Cart.Get("buyer1_tomato1"); !ok {
		t.Fatal("unrelated cart entry must survive")
	}
}
