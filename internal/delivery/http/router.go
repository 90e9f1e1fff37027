package http

import (
	"log/slog"
	"net/http"

	"ticketwizard/internal/delivery/http/controllers"
	"ticketwizard/internal/delivery/http/helpers"
	"ticketwizard/internal/delivery/http/middleware"
	"ticketwizard/internal/domain"

	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter initializes the HTTP router with all application routes.
// Every wizard route requires a bearer token.
func NewRouter(wizardController *controllers.WizardController, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Wizard
	mux.HandleFunc("GET /wizard", auth(wizardController.GetState))
	mux.HandleFunc("DELETE /wizard", auth(wizardController.Abandon))
	mux.HandleFunc("PATCH /wizard/draft", auth(wizardController.ApplyPatch))
	mux.HandleFunc("POST /wizard/next", auth(wizardController.Next))
	mux.HandleFunc("POST /wizard/back", auth(wizardController.Back))
	mux.HandleFunc("POST /wizard/tickets", auth(wizardController.AddTicketType))
	mux.HandleFunc("DELETE /wizard/tickets/{index}", auth(wizardController.RemoveTicketType))
	mux.HandleFunc("POST /wizard/tickets/{index}/attendees", auth(wizardController.AddAttendee))
	mux.HandleFunc("DELETE /wizard/tickets/{index}/attendees/{attendee}", auth(wizardController.RemoveAttendee))
	mux.HandleFunc("PUT /wizard/image", auth(wizardController.SetImage))
	mux.HandleFunc("POST /wizard/gallery", auth(wizardController.AddGalleryImage))
	mux.HandleFunc("DELETE /wizard/gallery/{index}", auth(wizardController.RemoveGalleryImage))
	mux.HandleFunc("POST /wizard/submit", auth(wizardController.Submit))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
