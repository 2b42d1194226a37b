package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/bullsgame/internal/api/apierr"
	"github.com/mcoot/bullsgame/internal/middleware"
)

// Recovery creates panic recovery middleware for the API. Panics become a
// JSON INTERNAL_ERROR response; the request id header already set by
// Logging lets the client quote it when reporting the failure.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger.With(slog.String("component", "api")), writeInternalError)
}

func writeInternalError(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
