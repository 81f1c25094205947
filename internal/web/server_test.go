package web_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stop1love1/death-point/internal/game"
	"github.com/stop1love1/death-point/internal/store"
	"github.com/stop1love1/death-point/internal/web"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *web.Server {
	t.Helper()
	engine, err := game.NewEngine(store.NewMemory())
	require.NoError(t, err)
	return web.NewServer(engine)
}

func do(t *testing.T, s *web.Server, method, path string, body any) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	payload := map[string]json.RawMessage{}
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(rec.Body.Bytes(), &payload)
	}
	return rec, payload
}

func startViaAPI(t *testing.T, s *web.Server) *game.State {
	t.Helper()
	rec, payload := do(t, s, http.MethodPost, "/api/game", gin.H{
		"names":    []string{"Anna", "Bo"},
		"maxScore": 20,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var st game.State
	require.NoError(t, json.Unmarshal(payload["game"], &st))
	return &st
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec, _ := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetGameWhenAbsent(t *testing.T) {
	s := newTestServer(t)
	rec, payload := do(t, s, http.MethodGet, "/api/game", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", string(payload["game"]))
}

func TestStartAndFetchGame(t *testing.T) {
	s := newTestServer(t)
	st := startViaAPI(t, s)
	require.Len(t, st.Players, 2)
	assert.Equal(t, 20, st.MaxScore)

	rec, payload := do(t, s, http.MethodGet, "/api/game", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched game.State
	require.NoError(t, json.Unmarshal(payload["game"], &fetched))
	assert.Equal(t, st.Players, fetched.Players)
}

func TestStartRejectsTooFewNames(t *testing.T) {
	s := newTestServer(t)
	rec, payload := do(t, s, http.MethodPost, "/api/game", gin.H{
		"names":    []string{"Anna"},
		"maxScore": 20,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.NotEmpty(t, payload["error"])
}

func TestScoreUndoNextTurnFlow(t *testing.T) {
	s := newTestServer(t)
	st := startViaAPI(t, s)
	anna := st.Players[0].ID

	rec, payload := do(t, s, http.MethodPost, "/api/game/score", gin.H{
		"playerId": anna,
		"delta":    15,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var after game.State
	require.NoError(t, json.Unmarshal(payload["game"], &after))
	assert.Equal(t, 15, after.Players[0].Score)

	rec, payload = do(t, s, http.MethodPost, "/api/game/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(payload["game"], &after))
	assert.Zero(t, after.Players[0].Score)

	// Nothing scored anymore, so the turn cannot advance.
	rec, _ = do(t, s, http.MethodPost, "/api/game/next-turn", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestScoreRejectsUnknownPlayer(t *testing.T) {
	s := newTestServer(t)
	startViaAPI(t, s)

	rec, payload := do(t, s, http.MethodPost, "/api/game/score", gin.H{
		"playerId": "ghost",
		"delta":    5,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.NotEmpty(t, payload["error"])
}

func TestRestart(t *testing.T) {
	s := newTestServer(t)
	startViaAPI(t, s)

	rec, _ := do(t, s, http.MethodDelete, "/api/game", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, payload := do(t, s, http.MethodGet, "/api/game", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", string(payload["game"]))
}

func TestEstimates(t *testing.T) {
	s := newTestServer(t)
	st := startViaAPI(t, s)
	anna := st.Players[0].ID

	rec, payload := do(t, s, http.MethodPost, "/api/game/score", gin.H{
		"playerId": anna,
		"delta":    15,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	_ = payload

	rec, payload = do(t, s, http.MethodGet, "/api/game/estimates", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var estimates []struct {
		PlayerID        string `json:"playerId"`
		LossProbability int    `json:"lossProbability"`
		ExpectedTurns   *int   `json:"expectedTurns"`
	}
	require.NoError(t, json.Unmarshal(payload["estimates"], &estimates))
	require.Len(t, estimates, 2)

	// Anna sits 5 points from a 20-point ceiling; Bo has not scored.
	assert.Equal(t, anna, estimates[0].PlayerID)
	assert.Equal(t, 100, estimates[0].LossProbability)
	require.NotNil(t, estimates[0].ExpectedTurns)
	assert.Equal(t, 1, *estimates[0].ExpectedTurns)

	assert.Equal(t, 0, estimates[1].LossProbability)
	assert.Nil(t, estimates[1].ExpectedTurns)
}

func TestEstimatesWhenNoGame(t *testing.T) {
	s := newTestServer(t)
	rec, payload := do(t, s, http.MethodGet, "/api/game/estimates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", string(payload["estimates"]))
}
