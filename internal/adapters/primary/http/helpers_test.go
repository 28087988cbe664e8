package http

import (
	"io"
	"log/slog"
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/lorrc/newsroom-notifications/internal/adapters/primary/http/middleware"
	"github.com/lorrc/newsroom-notifications/internal/auth"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withCaller injects a verified identity the way JWTMiddleware does.
func withCaller(userID uuid.UUID) func(stdhttp.Handler) stdhttp.Handler {
	return func(next stdhttp.Handler) stdhttp.Handler {
		return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			if userID != uuid.Nil {
				r = r.WithContext(mw.WithIdentity(r.Context(), auth.Identity{UserID: userID}))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newTestRouter(caller uuid.UUID, mount func(r chi.Router)) *chi.Mux {
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(withCaller(caller))
	mount(r)
	return r
}
