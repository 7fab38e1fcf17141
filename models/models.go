package models

import "time"

type User struct {
	UserID       string    `json:"user_id"`
	FullName     string    `json:"full_name"`
	Age          int       `json:"age"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Location     string    `json:"location,omitempty"`
	Role         string    `json:"role"` // "farmer" or "buyer"
	CreatedAt    time.Time `json:"created_at"`
}

type Crop struct {
	CropID    string    `json:"crop_id"`
	FarmerID  string    `json:"farmer_id"`
	Name      string    `json:"name"`
	Quantity  float64   `json:"quantity"`
	Unit      string    `json:"unit"`
	Location  string    `json:"location"`
	Price     float64   `json:"price"`
	ImageURL  string    `json:"image_url,omitempty"`
	ThumbURL  string    `json:"thumb_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CropWithFarmer is a Crop joined with its farmer's display name.
type CropWithFarmer struct {
	Crop
	FarmerName string `json:"farmer_name"`
}

// CartItem holds at most one live entry per (buyer, crop) pair.
type CartItem struct {
	BuyerID  string    `json:"buyer_id"`
	CropID   string    `json:"crop_id"`
	Quantity float64   `json:"quantity"`
	AddedAt  time.Time `json:"added_at"`
}

// CartLine is a cart entry joined with its crop at the live price.
type CartLine struct {
	CartItem  CartItem `json:"cart_item"`
	Crop      Crop     `json:"crop"`
	ItemTotal float64  `json:"item_total"`
}

type Order struct {
	OrderID    string    `json:"order_id"`
	BuyerID    string    `json:"buyer_id"`
	FarmerID   string    `json:"farmer_id"`
	CropID     string    `json:"crop_id"`
	CropName   string    `json:"crop_name"`
	Quantity   float64   `json:"quantity"`
	Unit       string    `json:"unit"`
	TotalPrice float64   `json:"total_price"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type Message struct {
	MessageID  string    `json:"message_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

type FarmerRating struct {
	RatingID  string    `json:"rating_id"`
	FarmerID  string    `json:"farmer_id"`
	BuyerID   string    `json:"buyer_id"`
	OrderID   string    `json:"order_id"`
	Rating    float64   `json:"rating"`
	Review    string    `json:"review,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RatingStats aggregates a farmer's ratings. Distribution is keyed by
// the integer buckets 1..5.
type RatingStats struct {
	AverageRating      float64     `json:"average_rating"`
	TotalRatings       int         `json:"total_ratings"`
	RatingDistribution map[int]int `json:"rating_distribution"`
}

type CarbonRecord struct {
	RecordID       string    `json:"footprint_id"`
	UserID         string    `json:"user_id"`
	CropID         string    `json:"crop_id"`
	Quantity       float64   `json:"quantity"`
	DistanceKm     float64   `json:"distance_km"`
	TransportMode  string    `json:"transport_mode"`
	TotalEmissions float64   `json:"total_emissions_kg"`
	CarbonSaved    float64   `json:"carbon_saved"`
	CalculatedAt   time.Time `json:"calculated_at"`
}
