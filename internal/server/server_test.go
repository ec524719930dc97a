package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khartman/memoflow/internal/history"
	"github.com/khartman/memoflow/internal/types"
)

// stubGenerator returns canned artifacts for each stage.
type stubGenerator struct {
	sourcesErr error
}

func (g *stubGenerator) Sources(_ context.Context, subject string) (string, error) {
	if g.sourcesErr != nil {
		return "", g.sourcesErr
	}
	return "# Primary Sources: " + subject, nil
}

func (g *stubGenerator) Report(_ context.Context, subject, _ string) (string, error) {
	return "# Analyst Report: " + subject, nil
}

func (g *stubGenerator) Memo(_ context.Context, subject, _ string) (string, error) {
	return "# Investment Memo: " + subject, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("BCRYPT_COST", "10")

	s, err := New(Config{
		Addr:      ":0",
		Password:  "letmein",
		Generator: &stubGenerator{},
		History:   history.NewMemoryStore(),
	})
	require.NoError(t, err)
	return s
}

func login(t *testing.T, ts *httptest.Server, password string) *http.Response {
	t.Helper()
	body, err := json.Marshal(types.LoginRequest{Password: password})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func authToken(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp := login(t, ts, "letmein")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var lr types.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lr))
	require.NotEmpty(t, lr.Token)
	return lr.Token
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp := login(t, ts, "wrong")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin_EmptyPassword(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp := login(t, ts, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistory_RequiresAuth(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/history")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHistory_Empty(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	token := authToken(t, ts)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/history", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []history.Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	assert.Empty(t, entries)
}

func TestRun_StreamsStagesAndCompletes(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	token := authToken(t, ts)

	body, err := json.Marshal(types.RunRequest{Subject: "Acme Corp"})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/run", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	stream := string(raw)

	assert.Contains(t, stream, "event: state")
	assert.Contains(t, stream, "sourcing_documents")
	assert.Contains(t, stream, "event: complete")
	assert.Contains(t, stream, `"status":"completed"`)

	// Run is recorded in history once complete.
	histReq, err := http.NewRequest(http.MethodGet, ts.URL+"/history", nil)
	require.NoError(t, err)
	histReq.Header.Set("Authorization", "Bearer "+token)

	histResp, err := http.DefaultClient.Do(histReq)
	require.NoError(t, err)
	defer histResp.Body.Close()

	var entries []history.Entry
	require.NoError(t, json.NewDecoder(histResp.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Acme Corp", entries[0].Subject)
	assert.Len(t, entries[0].Artifacts, 3)
}

func TestRun_InvalidBody(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	token := authToken(t, ts)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/run", strings.NewReader("{"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestState_IdleByDefault(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	token := authToken(t, ts)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/state", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state types.RunState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, types.StageIdle, state.Stage)
	assert.False(t, state.InProgress)
}

func TestValidateToken_RoundTrip(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	token := authToken(t, ts)

	claims, err := s.jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", claims.SessionID.String())

	_, err = s.jwtService.ValidateToken(token + "tampered")
	assert.Error(t, err)
}
