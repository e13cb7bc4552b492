package routes

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"caseguard/handler"
	"caseguard/middleware"
	"caseguard/repository"
	"caseguard/service"
	"caseguard/template"
	"caseguard/worker"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	ledger *service.EscalationLedger,
	notifier *service.Notifier,
	escalationWorker *worker.EscalationWorker,
	templateCache *template.Cache,
	userRepo *repository.UserRepository,
) *mux.Router {
	router := mux.NewRouter()

	// Initialize handlers
	escalationHandler := handler.NewEscalationHandler(ledger, escalationWorker)
	templateHandler := handler.NewTemplateHandler(notifier, templateCache)

	// Initialize auth middleware
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "change-me-in-production"
	}
	authMiddleware := middleware.NewAuthMiddleware(userRepo, jwtSecret)

	// API v1 routes
	apiV1 := router.PathPrefix("/api/v1").Subrouter()

	// Escalation routes
	escalations := apiV1.PathPrefix("/escalations").Subrouter()

	// POST /api/v1/escalations/evaluate - Trigger a sweep manually (admin only; worker also runs on schedule)
	escalations.Handle("/evaluate", middleware.RequireAdminAuth(http.HandlerFunc(escalationHandler.Evaluate))).Methods("POST")

	// GET /api/v1/escalations/stats - Status counts and average resolution time (REQUIRES AUTH)
	escalations.Handle("/stats", authMiddleware.RequireAuth(http.HandlerFunc(escalationHandler.Statistics))).Methods("GET")

	// POST /api/v1/escalations/{id}/acknowledge - Operator takes ownership (REQUIRES AUTH)
	escalations.Handle("/{id}/acknowledge", authMiddleware.RequireAuth(http.HandlerFunc(escalationHandler.Acknowledge))).Methods("POST")

	// POST /api/v1/escalations/{id}/resolve - Close out an escalation (REQUIRES AUTH)
	escalations.Handle("/{id}/resolve", authMiddleware.RequireAuth(http.HandlerFunc(escalationHandler.Resolve))).Methods("POST")

	// Template routes
	templates := apiV1.PathPrefix("/templates").Subrouter()

	// POST /api/v1/templates/{name}/preview - Render with sample or supplied variables (REQUIRES AUTH)
	templates.Handle("/{name}/preview", authMiddleware.RequireAuth(http.HandlerFunc(templateHandler.Preview))).Methods("POST")

	// POST /api/v1/templates/{name}/invalidate - Drop cached copy after an edit (admin only)
	templates.Handle("/{name}/invalidate", middleware.RequireAdminAuth(http.HandlerFunc(templateHandler.Invalidate))).Methods("POST")

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
