package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// DecodeJSON reads the response body into v, failing the test on malformed output.
func DecodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, v), "bad JSON body: %s", body)
}

// AssertPlainError checks status code and that the plain-text error body
// mentions fragment. Handlers write errors with http.Error, not JSON.
func AssertPlainError(t *testing.T, resp *http.Response, status int, fragment string) {
	t.Helper()

	assert.Equal(t, status, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), fragment)
}
