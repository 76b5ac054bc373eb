package handlers_test

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dom/snake-arena/internal/config"
	"github.com/dom/snake-arena/internal/domain"
	"github.com/dom/snake-arena/internal/testutil"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSimulator plays a scripted two-round match slowly enough for a
// spectator to attach, then writes the replay artifact the result points at.
func fakeSimulator(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	replayPath := filepath.Join(dir, "game-e2e.json")

	replay := `{"game":{"id":"game-e2e","actual_rounds":2,"width":10,"height":10,"num_apples":5},` +
		`"players":{"1":{"name":"openai/gpt-5","score":3,"result":"won","cost":0.1},` +
		`"2":{"name":"anthropic/claude-4","score":1,"result":"lost","cost":0.1}},` +
		`"totals":{"cost":0.2}}`
	require.NoError(t, os.WriteFile(replayPath, []byte(replay), 0o644))

	script := `#!/bin/sh
cat > /dev/null
echo '{"type":"status","message":"match starting","round":0}'
sleep 1
echo '{"type":"frame","round":1,"state":{"apples":[[1,2]]}}'
echo '{"type":"frame","round":2,"state":{"apples":[[3,4]]}}'
echo '{"type":"result","gameId":"game-e2e","scores":{"1":3,"2":1},"outcomes":{"1":"won","2":"lost"},"replayPath":"` + replayPath + `","totalCost":0.2}'
`
	simPath := filepath.Join(dir, "snake-sim")
	require.NoError(t, os.WriteFile(simPath, []byte(script), 0o755))
	return simPath
}

func TestSpectateFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping full match flow test in short mode")
	}

	simPath := fakeSimulator(t)
	ts := testutil.NewTestServerWithConfig(t, func(cfg *config.Config) {
		cfg.SimulatorPath = simPath
	})
	token := ts.OperatorToken(t)

	resp := postJSON(t, ts.APIURL("/matches"), map[string]interface{}{
		"modelA": "openai/gpt-5",
		"modelB": "anthropic/claude-4",
	}, token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var started struct {
		SessionID string `json:"sessionId"`
	}
	testutil.DecodeJSON(t, resp, &started)

	conn, _, err := ws.DefaultDialer.Dial(ts.SpectateURL(started.SessionID), nil)
	require.NoError(t, err)
	defer conn.Close()

	// Read until the server closes the stream after the result event.
	var types []string
	var result map[string]interface{}
	conn.SetReadDeadline(time.Now().Add(15 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var event struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(data, &event))
		types = append(types, event.Type)
		if event.Type == "result" {
			require.NoError(t, json.Unmarshal(event.Payload, &result))
		}
	}

	require.NotEmpty(t, types)
	assert.Equal(t, "result", types[len(types)-1], "result is the terminal event")
	assert.Contains(t, types, "frame")
	require.NotNil(t, result)
	assert.Equal(t, "game-e2e", result["gameId"])

	// The session resolves to the finished game.
	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.APIURL("/sessions/" + started.SessionID))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var res domain.Resolution
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return false
		}
		return res.State == domain.SessionCompleted && res.GameID == "game-e2e"
	}, 10*time.Second, 100*time.Millisecond)

	// The queue ingests the replay: game finalized, ratings applied.
	require.Eventually(t, func() bool {
		var game domain.Game
		if err := ts.DB.DB.First(&game, "id = ?", "game-e2e").Error; err != nil {
			return false
		}
		return game.Status == domain.GameStatusCompleted
	}, 10*time.Second, 100*time.Millisecond)

	var winner domain.Model
	require.NoError(t, ts.DB.DB.First(&winner, "model_slug = ?", "openai-gpt-5").Error)
	assert.Equal(t, 1, winner.Wins)
	assert.Greater(t, winner.TrueskillMu, domain.DefaultMu)

	// Reconnecting after completion is rejected before the upgrade.
	_, httpResp, err := ws.DefaultDialer.Dial(ts.SpectateURL(started.SessionID), nil)
	require.Error(t, err)
	require.NotNil(t, httpResp)
	assert.Equal(t, http.StatusGone, httpResp.StatusCode)
}
