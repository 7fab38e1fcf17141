// Package cart implements the inventory-aware cart and the per-buyer
// checkout pipeline on top of the entity store.
package cart

import (
	"hash/fnv"
	"sync"

	"farm2market/errs"
	"farm2market/models"
	"farm2market/store"
)

// Manager serializes all cart mutations for one buyer behind a striped
// lock so checkout behaves atomically per buyer. Different buyers never
// block each other (beyond stripe collisions).
type Manager struct {
	store  *store.Store
	stripe [32]sync.Mutex
}

func NewManager(s *store.Store) *Manager {
	return &Manager{store: s}
}

func (m *Manager) lock(buyerID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(buyerID))
	return &m.stripe[h.Sum32()%uint32(len(m.stripe))]
}

func cartKey(buyerID, cropID string) string {
	return buyerID + "_" + cropID
}

type AddResult struct {
	Merged    bool
	CartCount int
	ItemTotal float64
}

// Add puts quantity of a crop into the buyer's cart, merging with any
// existing entry for the same crop. The crop's quantity is never
// decremented here: concurrent buyers can overcommit the same stock,
// which checkout accepts as-is.
func (m *Manager) Add(buyerID, cropID string, quantity float64) (AddResult, error) {
	if quantity <= 0 {
		return AddResult{}, errs.Invalid("quantity must be positive")
	}
	if _, ok := m.store.Users.Get(buyerID); !ok {
		return AddResult{}, errs.NotFound("user")
	}
	crop, ok := m.store.Crops.Get(cropID)
	if !ok {
		return AddResult{}, errs.NotFound("crop")
	}
	if quantity > crop.Quantity {
		return AddResult{}, &errs.InsufficientInventory{Available: crop.Quantity, Unit: crop.Unit}
	}

	mu := m.lock(buyerID)
	mu.Lock()
	defer mu.Unlock()

	key := cartKey(buyerID, cropID)
	res := AddResult{ItemTotal: quantity * crop.Price}

	if existing, ok := m.store.Cart.Get(key); ok {
		newQuantity := existing.Quantity + quantity
		if newQuantity > crop.Quantity {
			// The existing reservation stays as it was.
			return AddResult{}, &errs.InsufficientInventory{Available: crop.Quantity, Unit: crop.Unit, Merged: true}
		}
		existing.Quantity = newQuantity
		m.store.Cart.Insert(key, existing)
		res.Merged = true
	} else {
		m.store.Cart.Insert(key, models.CartItem{
			BuyerID:  buyerID,
			CropID:   cropID,
			Quantity: quantity,
			AddedAt:  m.store.Now(),
		})
	}

	res.CartCount = m.Count(buyerID)
	return res, nil
}

// Remove deletes the buyer's entry for a crop. It reports false, not an
// error, when no such entry exists.
func (m *Manager) Remove(buyerID, cropID string) bool {
	mu := m.lock(buyerID)
	mu.Lock()
	defer mu.Unlock()
	return m.store.Cart.Delete(cartKey(buyerID, cropID))
}

func (m *Manager) Count(buyerID string) int {
	return len(m.store.Cart.Scan(func(it models.CartItem) bool { return it.BuyerID == buyerID }))
}

// Lines joins the buyer's cart entries with their crops at the live
// price. Entries whose crop has been deleted are omitted.
func (m *Manager) Lines(buyerID string) ([]models.CartLine, float64) {
	items := m.store.Cart.Scan(func(it models.CartItem) bool { return it.BuyerID == buyerID })

	lines := make([]models.CartLine, 0, len(items))
	var total float64
	for _, it := range items {
		crop, ok := m.store.Crops.Get(it.CropID)
		if !ok {
			continue
		}
		itemTotal := it.Quantity * crop.Price
		total += itemTotal
		lines = append(lines, models.CartLine{CartItem: it, Crop: crop, ItemTotal: itemTotal})
	}
	return lines, total
}

// Checkout converts the buyer's cart into orders at each crop's current
// price, then deletes exactly the snapshotted entries. Entries whose
// crop has been deleted since being carted are skipped silently.
// Entries added concurrently while this runs are never deleted.
func (m *Manager) Checkout(buyerID string) ([]models.Order, float64) {
	mu := m.lock(buyerID)
	mu.Lock()
	defer mu.Unlock()

	snapshot := m.store.Cart.ScanIDs(func(it models.CartItem) bool { return it.BuyerID == buyerID })

	orders := make([]models.Order, 0, len(snapshot))
	var total float64
	for _, item := range snapshot {
		crop, ok := m.store.Crops.Get(item.CropID)
		if !ok {
			continue
		}
		order := models.Order{
			OrderID:    m.store.NewID(),
			BuyerID:    buyerID,
			FarmerID:   crop.FarmerID,
			CropID:     crop.CropID,
			CropName:   crop.Name,
			Quantity:   item.Quantity,
			Unit:       crop.Unit,
			TotalPrice: item.Quantity * crop.Price,
			Status:     "confirmed",
			CreatedAt:  m.store.Now(),
		}
		m.store.Orders.Insert(order.OrderID, order)
		orders = append(orders, order)
		total += order.TotalPrice
	}

	for key := range snapshot {
		m.store.Cart.Delete(key)
	}

	return orders, total
}
