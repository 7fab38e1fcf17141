package store

import (
	"sync"
	"testing"

	"farm2market/models"
)

func TestRepoInsertGetDelete(t *testing.T) {
	s := New()

	id := s.NewID()
	s.Crops.Insert(id, models.Crop{CropID: id, Name: "Tomato", Quantity: 50, Unit: "kg", Price: 45})

	crop, ok := s.Crops.Get(id)
	if !ok {
		t.Fatal("expected crop to be found")
	}
	if crop.Name != "Tomato" || crop.Quantity != 50 {
		t.Fatalf("unexpected crop: %+v", crop)
	}

	if !s.Crops.Delete(id) {
		t.Fatal("expected delete to report true")
	}
	if s.Crops.Delete(id) {
		t.Fatal("expected second delete to report false")
	}
	if _, ok := s.Crops.Get(id); ok {
		t.Fatal("expected crop to be gone")
	}
}

func TestRepoScanPredicate(t *testing.T) {
	s := New()
	s.Cart.Insert("b1_c1", models.CartItem{BuyerID: "b1", CropID: "c1", Quantity: 2})
	s.Cart.Insert("b1_c2", models.CartItem{BuyerID: "b1", CropID: "c2", Quantity: 3})
	s.Cart.Insert("b2_c1", models.CartItem{BuyerID: "b2", CropID: "c1", Quantity: 1})

	mine := s.Cart.Scan(func(it models.CartItem) bool { return it.BuyerID == "b1" })
	if len(mine) != 2 {
		t.Fatalf("expected 2 items for b1, got %d", len(mine))
	}

	all := s.Cart.Scan(nil)
	if len(all) != 3 {
		t.Fatalf("expected 3 items total, got %d", len(all))
	}
}

func TestRepoConcurrentWrites(t *testing.T) {
	r := NewRepo[int]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r.Insert(string(rune('a'+n%26))+string(rune('0'+n/26)), n)
			r.Scan(nil)
		}(i)
	}
	wg.Wait()

	if r.Len() == 0 {
		t.Fatal("expected entries after concurrent writes")
	}
}

func TestStoreGeneratesUniqueIDs(t *testing.T) {
	s := New()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := s.NewID()
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}
