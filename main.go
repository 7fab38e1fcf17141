package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farm2market/advisory"
	"farm2market/auth"
	"farm2market/carbon"
	"farm2market/cart"
	"farm2market/chat"
	"farm2market/crops"
	"farm2market/filedrop"
	"farm2market/gemini"
	"farm2market/ratelim"
	"farm2market/ratings"
	"farm2market/rdx"
	"farm2market/receipts"
	"farm2market/routes"
	"farm2market/store"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		duration := time.Since(start)
		log.Printf("%s %s from %s – %v", r.Method, r.RequestURI, r.RemoteAddr, duration)
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func setupRouter(st *store.Store, rateLimiter *ratelim.RateLimiter, dispatcher *chat.Dispatcher, model *gemini.Client) *httprouter.Router {
	router := httprouter.New()
	router.GET("/health", Index)

	files := filedrop.New(os.Getenv("UPLOAD_DIR"))
	cartManager := cart.NewManager(st)
	advisoryService := advisory.NewService(modelOrNil(model), st)

	routes.AddStaticRoutes(router)
	routes.AddAuthRoutes(router, rateLimiter, auth.NewHandler(st))
	routes.AddCropRoutes(router, crops.NewHandler(st, files))
	routes.AddCartRoutes(router, cart.NewHandler(cartManager))
	routes.AddRatingRoutes(router, ratings.NewHandler(st))
	routes.AddChatRoutes(router, dispatcher, chat.NewHandler(st, dispatcher))
	routes.AddAdvisoryRoutes(router, rateLimiter, advisory.NewHandler(advisoryService))
	routes.AddCarbonRoutes(router, carbon.NewHandler(carbon.NewService(st)))
	routes.AddReceiptRoutes(router, receipts.NewHandler(st))

	return router
}

// modelOrNil keeps a nil *gemini.Client from becoming a non-nil Model
// interface value.
func modelOrNil(c *gemini.Client) advisory.Model {
	if c == nil {
		return nil
	}
	return c
}

func main() {
	// load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	// read port
	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	} else if port[0] != ':' {
		port = ":" + port
	}

	rdx.Init()

	st := store.New()
	rateLimiter := ratelim.NewRateLimiter()
	dispatcher := chat.NewDispatcher(st)

	model := gemini.NewFromEnv()
	if model == nil {
		log.Println("GEMINI_API_KEY not set; advisory features run on fallbacks only")
	}

	router := setupRouter(st, rateLimiter, dispatcher, model)

	// apply middleware: CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := loggingMiddleware(securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server listening on %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe error: %v", err)
		}
	}()

	// wait for interrupt or SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("🛑 Shutdown signal received; shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Graceful shutdown failed: %v", err)
	}

	log.Println("✅ Server stopped cleanly")
}
