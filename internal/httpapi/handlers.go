package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/arcadehub/backend/internal/broker"
	"github.com/arcadehub/backend/internal/scores"
)

// Player name bounds, after trimming. Longer names are truncated rather
// than rejected so the client never has to care.
const (
	minPlayerLen = 3
	maxPlayerLen = 15
)

const leaderboardSize = 10

type scorePayload struct {
	Player string `json:"player"`
	Score  *int   `json:"score"`
	Game   string `json:"game"`
}

// SubmitScore upserts a player's best score for a game.
func SubmitScore(store scores.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body scorePayload
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeMessage(w, http.StatusBadRequest, "Données invalides (pseudo 3 car. min, score, nom du jeu).")
			return
		}

		player := strings.TrimSpace(body.Player)
		if len([]rune(player)) < minPlayerLen || body.Score == nil || body.Game == "" {
			writeMessage(w, http.StatusBadRequest, "Données invalides (pseudo 3 car. min, score, nom du jeu).")
			return
		}
		if runes := []rune(player); len(runes) > maxPlayerLen {
			player = string(runes[:maxPlayerLen])
		}

		result, err := store.Submit(r.Context(), body.Game, player, *body.Score)
		if errors.Is(err, scores.ErrPlayerTaken) {
			writeMessage(w, http.StatusConflict, "Ce pseudo est déjà pris pour ce jeu.")
			return
		}
		if err != nil {
			log.Error("submit score", zap.String("game", body.Game), zap.Error(err))
			writeMessage(w, http.StatusInternalServerError, "Erreur interne du serveur.")
			return
		}

		switch result {
		case scores.Created:
			writeMessage(w, http.StatusCreated, "Score enregistré !")
		case scores.Improved:
			writeMessage(w, http.StatusOK, "Meilleur score mis à jour !")
		default:
			writeMessage(w, http.StatusOK, "Le score n'a pas dépassé le record.")
		}
	}
}

// TopScores returns the leaderboard for one game.
func TopScores(store scores.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game := chi.URLParam(r, "game")
		top, err := store.Top(r.Context(), game, leaderboardSize)
		if err != nil {
			log.Error("list scores", zap.String("game", game), zap.Error(err))
			writeMessage(w, http.StatusInternalServerError, "Erreur interne du serveur.")
			return
		}
		writeJSON(w, http.StatusOK, top)
	}
}

// BrokerStats reports active session and participant counts.
func BrokerStats(b *broker.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan broker.StatsView, 1)
		b.Inbox() <- broker.Stats{Reply: reply}
		select {
		case view := <-reply:
			writeJSON(w, http.StatusOK, view)
		case <-time.After(2 * time.Second):
			http.Error(w, "broker unavailable", http.StatusServiceUnavailable)
		}
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Message string `json:"message"`
	}{Message: msg})
}
