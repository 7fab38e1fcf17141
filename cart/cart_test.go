package cart

import (
	"errors"
	"sync"
	"testing"
	"time"

	"farm2market/errs"
	"farm2market/models"
	"farm2market/store"
)

func seedStore() (*store.Store, *Manager) {
	s := store.New()
	s.Now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	s.Users.Insert("farmer1", models.User{UserID: "farmer1", FullName: "Ravi Kumar", Role: "farmer"})
	s.Users.Insert("buyer1", models.User{UserID: "buyer1", FullName: "Anita Shah", Role: "buyer"})
	s.Users.Insert("buyer2", models.User{UserID: "buyer2", FullName: "Vikram Rao", Role: "buyer"})

	s.Crops.Insert("rice1", models.Crop{
		CropID: "rice1", FarmerID: "farmer1", Name: "rice",
		Quantity: 100, Unit: "kg", Location: "Pune", Price: 28,
	})

	return s, NewManager(s)
}

func TestAddThenRemoveRestoresCart(t *testing.T) {
	_, m := seedStore()

	res, err := m.Add("buyer1", "rice1", 40)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if res.CartCount != 1 || res.ItemTotal != 40*28 {
		t.Fatalf("unexpected add result: %+v", res)
	}

	if !m.Remove("buyer1", "rice1") {
		t.Fatal("expected remove to find the entry")
	}
	if m.Count("buyer1") != 0 {
		t.Fatal("expected empty cart after remove")
	}
	if m.Remove("buyer1", "rice1") {
		t.Fatal("expected second remove to report not present")
	}
}

func TestAddValidations(t *testing.T) {
	_, m := seedStore()

	if _, err := m.Add("buyer1", "rice1", 0); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("expected InvalidArgument for zero quantity, got %v", err)
	}
	if _, err := m.Add("ghost", "rice1", 5); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected NotFound for missing buyer, got %v", err)
	}
	if _, err := m.Add("buyer1", "ghost", 5); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected NotFound for missing crop, got %v", err)
	}

	_, err := m.Add("buyer1", "rice1", 150)
	var inv *errs.InsufficientInventory
	if !errors.As(err, &inv) {
		t.Fatalf("expected InsufficientInventory, got %v", err)
	}
	if inv.Available != 100 || inv.Unit != "kg" || inv.Merged {
		t.Fatalf("unexpected inventory error: %+v", inv)
	}
}

// Mirrors the rice 100 kg scenario: 40 then 70 fails leaving 40 intact,
// then 60 brings the entry to exactly 100.
func TestMergeOnAddBoundedByAvailability(t *testing.T) {
	s, m := seedStore()

	if _, err := m.Add("buyer1", "rice1", 40); err != nil {
		t.Fatalf("first add failed: %v", err)
	}

	_, err := m.Add("buyer1", "rice1", 70)
	var inv *errs.InsufficientInventory
	if !errors.As(err, &inv) {
		t.Fatalf("expected InsufficientInventory on overflow, got %v", err)
	}
	if inv.Available != 100 || !inv.Merged {
		t.Fatalf("unexpected inventory error: %+v", inv)
	}

	item, ok := s.Cart.Get("buyer1_rice1")
	if !ok || item.Quantity != 40 {
		t.Fatalf("expected prior quantity 40 to persist, got %+v", item)
	}

	res, err := m.Add("buyer1", "rice1", 60)
	if err != nil {
		t.Fatalf("third add failed: %v", err)
	}
	if !res.Merged {
		t.Fatal("expected merged add")
	}
	item, _ = s.Cart.Get("buyer1_rice1")
	if item.Quantity != 100 {
		t.Fatalf("expected merged quantity 100, got %g", item.Quantity)
	}
}

// Adding to cart never decrements crop quantity, so two buyers can both
// reserve the full stock. Checkout accepts the overcommit.
func TestConcurrentBuyersCanOvercommit(t *testing.T) {
	s, m := seedStore()

	if _, err := m.Add("buyer1", "rice1", 100); err != nil {
		t.Fatalf("buyer1 add failed: %v", err)
	}
	if _, err := m.Add("buyer2", "rice1", 100); err != nil {
		t.Fatalf("buyer2 add failed: %v", err)
	}

	crop, _ := s.Crops.Get("rice1")
	if crop.Quantity != 100 {
		t.Fatalf("crop quantity must stay untouched, got %g", crop.Quantity)
	}
}

func TestCheckoutCreatesOrdersAndClearsSnapshot(t *testing.T) {
	s, m := seedStore()

	if _, err := m.Add("buyer1", "rice1", 40); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	orders, total := m.Checkout("buyer1")
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	o := orders[0]
	if o.BuyerID != "buyer1" || o.FarmerID != "farmer1" || o.CropID != "rice1" {
		t.Fatalf("unexpected order: %+v", o)
	}
	if o.TotalPrice != 40*28 || total != 40*28 {
		t.Fatalf("expected total 1120, got order %g grand %g", o.TotalPrice, total)
	}
	if o.Status != "confirmed" {
		t.Fatalf("expected status confirmed, got %q", o.Status)
	}
	if m.Count("buyer1") != 0 {
		t.Fatal("expected cart cleared after checkout")
	}

	// Repeat checkout on an emptied cart must not double-order.
	orders, _ = m.Checkout("buyer1")
	if len(orders) != 0 {
		t.Fatalf("expected no orders on second checkout, got %d", len(orders))
	}
	if s.Orders.Len() != 1 {
		t.Fatalf("expected exactly 1 stored order, got %d", s.Orders.Len())
	}
}

func TestCheckoutSkipsDeletedCrops(t *testing.T) {
	s, m := seedStore()
	s.Crops.Insert("tomato1", models.Crop{
		CropID: "tomato1", FarmerID: "farmer1", Name: "tomato",
		Quantity: 50, Unit: "kg", Location: "Pune", Price: 45,
	})

	if _, err := m.Add("buyer1", "rice1", 10); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := m.Add("buyer1", "tomato1", 5); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	s.Crops.Delete("tomato1")

	orders, total := m.Checkout("buyer1")
	if len(orders) != 1 || orders[0].CropID != "rice1" {
		t.Fatalf("expected only the rice order, got %+v", orders)
	}
	if total != 10*28 {
		t.Fatalf("expected total 280, got %g", total)
	}
	if m.Count("buyer1") != 0 {
		t.Fatal("expected both snapshotted entries removed")
	}
}

func TestCheckoutUsesCurrentPrice(t *testing.T) {
	s, m := seedStore()

	if _, err := m.Add("buyer1", "rice1", 10); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	crop, _ := s.Crops.Get("rice1")
	crop.Price = 30
	s.Crops.Insert("rice1", crop)

	orders, _ := m.Checkout("buyer1")
	if orders[0].TotalPrice != 10*30 {
		t.Fatalf("expected checkout at the drifted price, got %g", orders[0].TotalPrice)
	}
}

// A concurrent add for the same buyer must either land before the
// snapshot (and be ordered) or after the deletion (and survive) — never
// be silently lost.
func TestCheckoutAtomicPerBuyer(t *testing.T) {
	s, m := seedStore()

	if _, err := m.Add("buyer1", "rice1", 20); err != nil {
		t.Fatalf("seed add failed: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		m.Checkout("buyer1")
	}()
	go func() {
		defer wg.Done()
		m.Add("buyer1", "rice1", 30)
	}()
	wg.Wait()

	ordered := 0.0
	for _, o := range s.Orders.Scan(nil) {
		ordered += o.Quantity
	}
	carted := 0.0
	for _, it := range s.Cart.Scan(nil) {
		carted += it.Quantity
	}

	if ordered+carted != 50 {
		t.Fatalf("quantity lost or duplicated: ordered %g + carted %g != 50", ordered, carted)
	}
}
