package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecotrack/ecotrack/internal/detect"
)

// RouterConfig holds the dependencies for the API router.
type RouterConfig struct {
	DB           *sql.DB
	JWTSecret    string
	SecureCookie bool
	Detector     detect.Detector
	CORSOrigins  []string
}

// NewRouter creates the API router with all endpoints registered and
// the middleware stack applied.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: cfg.DB, JWTSecret: cfg.JWTSecret, SecureCookie: cfg.SecureCookie}
	pickupsHandler := &PickupsHandler{DB: cfg.DB}
	roadmapHandler := &RoadmapHandler{DB: cfg.DB}
	detectHandler := &DetectHandler{Detector: cfg.Detector}

	authMW := CookieAuthMiddleware(cfg.JWTSecret)

	// Public: registration, login, logout.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)

	// Session-scoped routes.
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))

	mux.Handle("GET /api/pickups", authMW(http.HandlerFunc(pickupsHandler.List)))
	mux.Handle("POST /api/pickups", authMW(http.HandlerFunc(pickupsHandler.Create)))

	mux.Handle("POST /api/detect", authMW(http.HandlerFunc(detectHandler.Detect)))

	mux.Handle("GET /api/roadmap", authMW(http.HandlerFunc(roadmapHandler.List)))
	mux.Handle("POST /api/roadmap", authMW(http.HandlerFunc(roadmapHandler.Create)))
	mux.Handle("GET /api/roadmap/{id}", authMW(http.HandlerFunc(roadmapHandler.Get)))
	mux.Handle("PUT /api/roadmap/{id}", authMW(http.HandlerFunc(roadmapHandler.SetStage)))

	// Operational endpoints.
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	corsMW := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	var handler http.Handler = mux
	handler = corsMW(handler)
	handler = LoggingMiddleware(handler)
	handler = RequestIDMiddleware(handler)
	handler = RecoveryMiddleware(handler)
	return handler
}
