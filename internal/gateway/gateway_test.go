package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacl-coder/PixelStorm-Arena/config"
	"github.com/jacl-coder/PixelStorm-Arena/internal/auth"
	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
	"github.com/jacl-coder/PixelStorm-Arena/internal/store"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestGateway(t *testing.T, secret string) (*store.MemoryGateway, http.Handler) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.JWTSecret = secret
	st := store.NewMemoryGateway()
	g := NewGateway(cfg, st, store.NewGatewayLeaderboard(st), zerolog.Nop())
	t.Cleanup(g.limiter.Stop)
	return st, g.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string, header map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func seedPlayer(t *testing.T, st *store.MemoryGateway, username string, kills int) *models.Player {
	t.Helper()
	ctx := context.Background()
	p, err := st.CreatePlayer(ctx, models.NewPlayer{Username: username, Password: "hashed"})
	require.NoError(t, err)
	p, err = st.AddPlayerStats(ctx, p.ID, models.StatsDelta{Kills: kills, Deaths: 2, MatchesPlayed: 4, MatchesWon: 1, XP: 1500})
	require.NoError(t, err)
	return p
}

func TestGetPlayerProfile(t *testing.T) {
	st, h := newTestGateway(t, "")
	p := seedPlayer(t, st, "alice", 6)

	rec, env := do(t, h, http.MethodGet, "/api/players/"+p.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.NotContains(t, string(env.Data), "hashed")
	assert.NotContains(t, string(env.Data), "password")

	var data struct {
		ID         string           `json:"id"`
		Username   string           `json:"username"`
		Level      int              `json:"level"`
		Statistics PlayerStatistics `json:"statistics"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, p.ID, data.ID)
	assert.Equal(t, 2, data.Level)
	assert.Equal(t, PlayerStatistics{WinRate: 25, KD: 3, AverageKills: 1.5, NextLevelXP: 500}, data.Statistics)
}

func TestGetPlayerProfileNotFound(t *testing.T) {
	_, h := newTestGateway(t, "")

	rec, env := do(t, h, http.MethodGet, "/api/players/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)

	rec, _ = do(t, h, http.MethodGet, "/api/players/a/b", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodDelete, "/api/players/a", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestUpdateAvatar(t *testing.T) {
	st, h := newTestGateway(t, "")
	p := seedPlayer(t, st, "alice", 0)

	rec, _ := do(t, h, http.MethodPut, "/api/players/"+p.ID, `{"avatarId":3}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := st.GetPlayer(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.AvatarID)

	for _, body := range []string{`{"avatarId":4}`, `{"avatarId":-1}`, `{}`, `nope`} {
		rec, _ = do(t, h, http.MethodPut, "/api/players/"+p.ID, body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec, _ = do(t, h, http.MethodPut, "/api/players/missing", `{"avatarId":1}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateAvatarRequiresMatchingToken(t *testing.T) {
	st, h := newTestGateway(t, "secret")
	alice := seedPlayer(t, st, "alice", 0)
	bob := seedPlayer(t, st, "bob", 0)

	rec, _ := do(t, h, http.MethodPut, "/api/players/"+alice.ID, `{"avatarId":1}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	bobToken, err := auth.Sign("secret", bob.ID, time.Minute)
	require.NoError(t, err)
	rec, _ = do(t, h, http.MethodPut, "/api/players/"+alice.ID, `{"avatarId":1}`,
		map[string]string{"Authorization": "Bearer " + bobToken})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	aliceToken, err := auth.Sign("secret", alice.ID, time.Minute)
	require.NoError(t, err)
	rec, _ = do(t, h, http.MethodPut, "/api/players/"+alice.ID, `{"avatarId":1}`,
		map[string]string{"Authorization": "Bearer " + aliceToken})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestValidateToken(t *testing.T) {
	_, h := newTestGateway(t, "secret")
	token, err := auth.Sign("secret", "player-1", time.Minute)
	require.NoError(t, err)

	rec, env := do(t, h, http.MethodGet, "/auth/validate?token="+token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"playerId":"player-1"}`, string(env.Data))

	rec, _ = do(t, h, http.MethodGet, "/auth/validate", "", map[string]string{"Authorization": "Bearer junk"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, open := newTestGateway(t, "")
	rec, _ = do(t, open, http.MethodGet, "/auth/validate", "", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestLeaderboard(t *testing.T) {
	st, h := newTestGateway(t, "")
	seedPlayer(t, st, "alice", 3)
	seedPlayer(t, st, "bob", 9)
	seedPlayer(t, st, "carol", 5)

	rec, env := do(t, h, http.MethodGet, "/api/leaderboard?limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var data LeaderboardData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Players, 2)
	assert.Equal(t, "bob", data.Players[0].Username)
	assert.Equal(t, 1, data.Players[0].Rank)
	assert.Equal(t, "carol", data.Players[1].Username)
	assert.NotContains(t, rec.Body.String(), "hashed")

	rec, _ = do(t, h, http.MethodGet, "/api/leaderboard?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(t, h, http.MethodGet, "/api/leaderboard?limit=1000", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Len(t, data.Players, 3)
}

func TestLeaderboardResponseCached(t *testing.T) {
	st, h := newTestGateway(t, "")
	seedPlayer(t, st, "alice", 3)

	first, _ := do(t, h, http.MethodGet, "/api/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Empty(t, first.Header().Get("X-Cache"))

	seedPlayer(t, st, "bob", 9)
	second, _ := do(t, h, http.MethodGet, "/api/leaderboard", "", nil)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())

	etag := second.Header().Get("ETag")
	require.NotEmpty(t, etag)
	third, _ := do(t, h, http.MethodGet, "/api/leaderboard", "", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, third.Code)
}

func TestHealthAndMiddlewareHeaders(t *testing.T) {
	_, h := newTestGateway(t, "")

	rec, _ := do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec, _ = do(t, h, http.MethodOptions, "/api/leaderboard", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
