package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/accounts-go/apperror"
)

func newTestHandlers(t *testing.T) (*Handlers, *fakeRepo) {
	t.Helper()
	svc, repo, _ := newTestService(t)
	return NewHandlers(svc, "/api/auth/profile"), repo
}

func doJSON(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleRegister(t *testing.T) {
	h, _ := newTestHandlers(t)

	rec := doJSON(h.HandleRegister(), `{"username":"alice","password":"Secr3t!","confirmPassword":"Secr3t!"}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/auth/profile", rec.Header().Get("Location"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"userId":1,"username":"alice"}`, rec.Body.String())
}

func TestHandleRegister_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"username":`, http.StatusBadRequest},
		{"missing fields", `{}`, http.StatusBadRequest},
		{"mismatch", `{"username":"alice","password":"a","confirmPassword":"b"}`, http.StatusBadRequest},
		{"too large", `{"username":"` + strings.Repeat("a", MaxBodyBytes) + `"}`, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newTestHandlers(t)
			rec := doJSON(h.HandleRegister(), tc.body)

			assert.Equal(t, tc.status, rec.Code)
			var body apperror.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestHandleRegister_Conflict(t *testing.T) {
	h, _ := newTestHandlers(t)
	body := `{"username":"alice","password":"Secr3t!","confirmPassword":"Secr3t!"}`

	require.Equal(t, http.StatusCreated, doJSON(h.HandleRegister(), body).Code)
	rec := doJSON(h.HandleRegister(), body)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
}

func TestHandleLogin(t *testing.T) {
	h, _ := newTestHandlers(t)
	_, err := h.service.Register(context.Background(), register("alice", "Secr3t!"))
	require.NoError(t, err)

	rec := doJSON(h.HandleLogin(), `{"username":"alice","password":"Secr3t!"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Username)
	assert.NotEmpty(t, resp.Token)
	assert.NotContains(t, rec.Body.String(), "Secr3t!")
	assert.NotContains(t, rec.Body.String(), "$2a$")

	rec = doJSON(h.HandleLogin(), `{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(h.HandleLogin(), `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWriteError_HidesUnknownErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteError(rec, req, errDBDown)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}
