package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/arcadehub/backend/internal/broker"
	"github.com/arcadehub/backend/internal/scores"
	"github.com/arcadehub/backend/internal/ws"
)

func SetupRoutes(b *broker.Broker, store scores.Store, staticDir string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(allowAllOrigins)

	r.Post("/scores", SubmitScore(store, log))
	r.Get("/scores/{game}", TopScores(store, log))
	r.Get("/healthz", Healthz)
	r.Get("/stats", BrokerStats(b))
	r.Get("/ws", ws.Handler(b, log))

	if staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(staticDir)))
	}
	return r
}

// allowAllOrigins mirrors the permissive CORS the PWA deployment expects.
func allowAllOrigins(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
