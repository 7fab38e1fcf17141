// Package routes wires every handler group onto the router.
package routes

import (
	"net/http"

	"farm2market/advisory"
	"farm2market/auth"
	"farm2market/carbon"
	"farm2market/cart"
	"farm2market/chat"
	"farm2market/crops"
	"farm2market/middleware"
	"farm2market/ratelim"
	"farm2market/ratings"
	"farm2market/receipts"

	"github.com/julienschmidt/httprouter"
)

func AddStaticRoutes(router *httprouter.Router) {
	router.ServeFiles("/uploads/crops/*filepath", http.Dir("static/uploads/crops"))
}

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, h *auth.Handler) {
	router.POST("/api/signup", rl.Limit(h.Signup))
	router.POST("/api/login", rl.Limit(h.Login))
	router.GET("/api/profile/:userid", middleware.Authenticate(h.GetProfile))
}

func AddCropRoutes(router *httprouter.Router, h *crops.Handler) {
	router.GET("/api/crops", middleware.OptionalAuth(h.GetCrops))
	router.GET("/api/crops/:cropid", middleware.OptionalAuth(h.GetCrop))
	router.POST("/api/crops", middleware.Authenticate(h.AddCrop))
	router.PUT("/api/crops/:cropid", middleware.Authenticate(h.UpdateCrop))
	router.DELETE("/api/crops/:cropid", middleware.Authenticate(h.DeleteCrop))
	router.GET("/api/my-crops", middleware.Authenticate(h.GetMyCrops))
}

func AddCartRoutes(router *httprouter.Router, h *cart.Handler) {
	router.POST("/api/cart", middleware.Authenticate(h.AddToCart))
	router.GET("/api/cart", middleware.Authenticate(h.GetCart))
	router.GET("/api/cart/count", middleware.Authenticate(h.GetCartCount))
	router.DELETE("/api/cart/:cropid", middleware.Authenticate(h.RemoveFromCart))
	router.POST("/api/checkout", middleware.Authenticate(h.Checkout))
	router.GET("/api/orders", middleware.Authenticate(h.GetOrders))
}

func AddRatingRoutes(router *httprouter.Router, h *ratings.Handler) {
	router.POST("/api/rate-farmer", middleware.Authenticate(h.SubmitRating))
	router.GET("/api/farmer-ratings/:farmerid", middleware.OptionalAuth(h.GetFarmerRatings))
}

func AddChatRoutes(router *httprouter.Router, d *chat.Dispatcher, h *chat.Handler) {
	router.GET("/ws/:userid", d.ServeWS)
	router.POST("/api/messages", middleware.Authenticate(h.SendMessage))
	router.GET("/api/messages/:userid", middleware.Authenticate(h.GetConversation))
}

func AddAdvisoryRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, h *advisory.Handler) {
	router.GET("/api/price-suggestion", rl.Limit(h.GetPriceSuggestion))
	router.GET("/api/recommendations/:userid", rl.Limit(h.GetRecommendations))
	router.POST("/api/voice-search", rl.Limit(h.VoiceSearch))
	router.POST("/api/ai-chat", rl.Limit(h.Chat))
}

func AddCarbonRoutes(router *httprouter.Router, h *carbon.Handler) {
	router.POST("/api/carbon-footprint", h.CalculateFootprint)
	router.GET("/api/carbon-history/:userid", h.GetHistory)
}

func AddReceiptRoutes(router *httprouter.Router, h *receipts.Handler) {
	router.GET("/api/orders/:orderid/receipt", middleware.Authenticate(h.DownloadReceipt))
}
