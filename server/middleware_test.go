package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/accounts-go/logging"
)

func TestRecoverer(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New("debug", "json", &buf)
	require.NoError(t, err)

	h := recoverer(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	assert.Contains(t, buf.String(), "panic in handler")
	assert.Contains(t, buf.String(), "boom")
}

func TestRecoverer_AfterResponseStarted(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New("debug", "json", &buf)
	require.NoError(t, err)

	h := recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("partial"))
		panic("late boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "partial", rec.Body.String())
	assert.Contains(t, buf.String(), "late boom")
	assert.Contains(t, buf.String(), `"response_started":true`)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New("info", "json", &buf)
	require.NoError(t, err)

	h := requestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/auth/profile", entry["path"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
	assert.NotContains(t, buf.String(), "secret-token")
}
