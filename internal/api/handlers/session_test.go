package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/dom/snake-arena/internal/domain"
	"github.com/dom/snake-arena/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionHandler_Resolve(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	pending, err := ts.Services.Session.CreatePending(ctx, "model-a", "model-b")
	require.NoError(t, err)

	completed, err := ts.Services.Session.CreatePending(ctx, "model-a", "model-b")
	require.NoError(t, err)
	require.NoError(t, ts.Services.Session.MarkCompleted(ctx, completed.ID, "game-9"))

	tests := []struct {
		name       string
		sessionID  string
		wantState  domain.SessionState
		wantGameID string
	}{
		{"pending session", pending.ID, domain.SessionPending, ""},
		{"completed session", completed.ID, domain.SessionCompleted, "game-9"},
		{"unknown session", "no-such-session", domain.SessionUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(ts.APIURL("/sessions/" + tt.sessionID))
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, http.StatusOK, resp.StatusCode)
			var resolution domain.Resolution
			testutil.DecodeJSON(t, resp, &resolution)
			assert.Equal(t, tt.wantState, resolution.State)
			assert.Equal(t, tt.wantGameID, resolution.GameID)
		})
	}
}

func TestSpectateHandler_RejectsDeadSessions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	completed, err := ts.Services.Session.CreatePending(ctx, "model-a", "model-b")
	require.NoError(t, err)
	require.NoError(t, ts.Services.Session.MarkCompleted(ctx, completed.ID, "game-9"))

	// Plain GET, no upgrade: the handler must reject before upgrading.
	resp, err := http.Get(ts.APIURL("/sessions/" + completed.ID + "/spectate"))
	require.NoError(t, err)
	defer resp.Body.Close()
	testutil.AssertPlainError(t, resp, http.StatusGone, "replay")

	resp, err = http.Get(ts.APIURL("/sessions/no-such-session/spectate"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMatchHandler_Start(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ts := testutil.NewTestServer(t)
	token := ts.OperatorToken(t)

	t.Run("accepted", func(t *testing.T) {
		resp := postJSON(t, ts.APIURL("/matches"), map[string]interface{}{
			"modelA": "openai/gpt-5",
			"modelB": "anthropic/claude-4",
			"width":  10,
			"height": 10,
		}, token)
		defer resp.Body.Close()

		require.Equal(t, http.StatusAccepted, resp.StatusCode)
		var result struct {
			SessionID string `json:"sessionId"`
			ExpiresAt string `json:"expiresAt"`
		}
		testutil.DecodeJSON(t, resp, &result)
		assert.NotEmpty(t, result.SessionID)
		assert.NotEmpty(t, result.ExpiresAt)

		// The session is immediately resolvable.
		res := ts.Services.Session.Resolve(context.Background(), result.SessionID)
		assert.Equal(t, domain.SessionPending, res.State)
	})

	t.Run("missing models", func(t *testing.T) {
		resp := postJSON(t, ts.APIURL("/matches"), map[string]interface{}{"modelA": "alone"}, token)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestMatchHandler_GetAndList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ts := testutil.NewTestServer(t)

	resp, err := http.Get(ts.APIURL("/games/no-such-game"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.APIURL("/games"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Games       []domain.Game `json:"games"`
		PendingJobs int           `json:"pendingJobs"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.Empty(t, result.Games)
	assert.Equal(t, 0, result.PendingJobs)
}
