package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arcadehub/backend/internal/broker"
	"github.com/arcadehub/backend/internal/scores"
	"github.com/arcadehub/backend/internal/session"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	b := broker.New(ctx, session.NewRegistry(), zap.NewNop())
	store := scores.NewMemoryStore(func(string) bool { return false })
	srv := httptest.NewServer(SetupRoutes(b, store, "", zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func postScore(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/scores", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var out struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out.Message
}

func TestSubmitScore_Validation(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"player too short", `{"player":"ab","score":10,"game":"snake"}`},
		{"player only spaces", `{"player":"    ","score":10,"game":"snake"}`},
		{"missing score", `{"player":"alice","game":"snake"}`},
		{"missing game", `{"player":"alice","score":10}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postScore(t, srv, tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestSubmitScore_UpsertFlow(t *testing.T) {
	srv := newTestServer(t)

	resp := postScore(t, srv, `{"player":"alice","score":100,"game":"snake"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Score enregistré !", decodeMessage(t, resp))

	resp = postScore(t, srv, `{"player":"alice","score":50,"game":"snake"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Le score n'a pas dépassé le record.", decodeMessage(t, resp))

	resp = postScore(t, srv, `{"player":"alice","score":120,"game":"snake"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Meilleur score mis à jour !", decodeMessage(t, resp))
}

func TestSubmitScore_TruncatesLongPlayerName(t *testing.T) {
	srv := newTestServer(t)

	resp := postScore(t, srv, `{"player":"aVeryLongPlayerNameIndeed","score":10,"game":"snake"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	top := fetchTop(t, srv, "snake")
	require.Len(t, top, 1)
	assert.Equal(t, "aVeryLongPlayer", top[0].Player)
}

// conflictStore simulates losing the unique-index race on first insert.
type conflictStore struct{ scores.Store }

func (conflictStore) Submit(ctx context.Context, game, player string, value int) (scores.SubmitResult, error) {
	return 0, scores.ErrPlayerTaken
}

func TestSubmitScore_PlayerTakenConflict(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	b := broker.New(ctx, session.NewRegistry(), zap.NewNop())
	srv := httptest.NewServer(SetupRoutes(b, conflictStore{}, "", zap.NewNop()))
	t.Cleanup(srv.Close)

	resp := postScore(t, srv, `{"player":"alice","score":10,"game":"snake"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Ce pseudo est déjà pris pour ce jeu.", decodeMessage(t, resp))
}

func fetchTop(t *testing.T, srv *httptest.Server, game string) []scores.Score {
	t.Helper()
	resp, err := http.Get(fmt.Sprintf("%s/scores/%s", srv.URL, game))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []scores.Score
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestTopScores_OrderedLeaderboard(t *testing.T) {
	srv := newTestServer(t)

	for i := 1; i <= 12; i++ {
		resp := postScore(t, srv, fmt.Sprintf(`{"player":"player%02d","score":%d,"game":"snake"}`, i, i*10))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	top := fetchTop(t, srv, "snake")
	require.Len(t, top, 10)
	assert.Equal(t, 120, top[0].Score)
	assert.Equal(t, 30, top[9].Score)
}

func TestTopScores_UnknownGameIsEmpty(t *testing.T) {
	srv := newTestServer(t)
	assert.Empty(t, fetchTop(t, srv, "nonexistent"))
}

func TestHealthzAndStats(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view broker.StatsView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, 0, view.Sessions)
}
