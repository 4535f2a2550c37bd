package app

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"quickref/internal/handler"
	"quickref/internal/handler/sse"
	"quickref/internal/middleware"
)

// staticCacheControl lets browsers reuse page images briefly; Last-Modified
// covers revalidation after a source is replaced under the same name.
const staticCacheControl = "public, max-age=300"

// Handler builds the HTTP surface.
func (a *App) Handler() http.Handler {
	logger := a.Logger

	catalogHandler := handler.NewCatalogHandler(a.Catalog, logger)
	checklistHandler := handler.NewChecklistHandler(a.Checklists, logger)
	adminHandler := handler.NewAdminHandler(a.Catalog, a.Checklists, a.Bus, logger)
	authHandler := handler.NewAuthHandler(a.Sessions, !a.Config.IsDev(), logger)
	streamHandler := handler.NewStreamHandler(a.Bus, sse.DefaultConfig(), logger)
	healthHandler := handler.NewHealthHandler(a.Bus, a.Config.StoreBackend)
	jpgHandler := handler.NewStaticHandler(a.Config.JPGDir, staticCacheControl, logger)
	pdfHandler := handler.NewStaticHandler(a.Config.PDFDir, staticCacheControl, logger)

	admin := middleware.RequireAdmin(a.Sessions, logger)
	guard := func(h http.HandlerFunc) http.Handler { return admin(h) }

	// Go 1.22+ enhanced patterns
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Live refresh
	mux.HandleFunc("GET /stream", streamHandler.Stream)
	mux.Handle("POST /trigger-refresh", guard(adminHandler.TriggerRefresh))
	mux.Handle("POST /trigger_refresh", guard(adminHandler.TriggerRefresh)) // legacy alias

	// Catalog reads
	mux.HandleFunc("GET /api/home", catalogHandler.Home)
	mux.HandleFunc("GET /api/categories", catalogHandler.Categories)
	mux.HandleFunc("GET /api/extracts/{path...}", catalogHandler.ListCategory)
	mux.HandleFunc("GET /api/viewer/{path...}", catalogHandler.OpenDocument)
	mux.HandleFunc("GET /api/checklists/{path...}", checklistHandler.Lookup)

	// Session
	mux.HandleFunc("POST /login", authHandler.Login)
	mux.HandleFunc("POST /logout", authHandler.Logout)

	// Admin mutations
	mux.Handle("POST /admin/documents", guard(adminHandler.UploadDocument))
	mux.Handle("DELETE /admin/documents", guard(adminHandler.DeleteDocument))
	mux.Handle("DELETE /admin/categories", guard(adminHandler.DeleteCategory))
	mux.Handle("PUT /admin/checklists", guard(adminHandler.SaveChecklist))

	// Artifacts and sources
	mux.HandleFunc("GET /jpgs/{name}", jpgHandler.Serve)
	mux.HandleFunc("GET /pdfs/{name}", pdfHandler.Serve)

	// Order: CORS → Recovery → RequestLogger → Routes
	var h http.Handler = mux
	h = middleware.RequestLogger(logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - outermost so pre-flight requests never reach the auth guard
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(a.Config.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	return corsHandler.Handler(h)
}
