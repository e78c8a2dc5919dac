package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"basketbolista/internal/delivery/http/controllers"
	"basketbolista/internal/delivery/http/middleware"
	"basketbolista/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	verifier domain.TokenVerifier,
	groupController *controllers.GroupController,
	eventController *controllers.EventController,
	registrationController *controllers.RegistrationController,
) *http.ServeMux {
	mux := http.NewServeMux()

	requireAuth := middleware.RequireAuth(verifier)
	optionalAuth := middleware.OptionalAuth(verifier)

	// Groups (admin only)
	mux.HandleFunc("POST /groups", requireAuth(groupController.Create))
	mux.HandleFunc("GET /groups/{groupID}", requireAuth(groupController.Get))
	mux.HandleFunc("PATCH /groups/{groupID}/settings", requireAuth(groupController.UpdateSettings))

	// Events
	mux.HandleFunc("POST /groups/{groupID}/events", requireAuth(eventController.Create))
	mux.HandleFunc("GET /groups/{groupID}/events", optionalAuth(eventController.ListByGroup))
	mux.HandleFunc("GET /events/resolve", eventController.Resolve)
	mux.HandleFunc("GET /events/{eventID}", eventController.Get)
	mux.HandleFunc("PATCH /events/{eventID}", requireAuth(eventController.Update))
	mux.HandleFunc("DELETE /events/{eventID}", requireAuth(eventController.Delete))
	mux.HandleFunc("GET /events/{eventID}/calendar.ics", eventController.Calendar)
	mux.HandleFunc("GET /events/{eventID}/share", eventController.Share)
	mux.HandleFunc("GET /events/{eventID}/share/qr", eventController.ShareQR)

	// Registrations (open to anonymous participants; identity attached when present)
	mux.HandleFunc("GET /events/{eventID}/ledger", registrationController.Ledger)
	mux.HandleFunc("POST /events/{eventID}/registrations", optionalAuth(registrationController.Register))
	mux.HandleFunc("DELETE /events/{eventID}/registrations/{registrationID}", optionalAuth(registrationController.Cancel))
	mux.HandleFunc("PATCH /events/{eventID}/registrations/{registrationID}/paid", optionalAuth(registrationController.SetPaid))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
