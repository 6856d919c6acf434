package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionCookie(t *testing.T, env *testEnv, email string) *http.Cookie {
	t.Helper()
	w := env.do(t, http.MethodPost, "/api/session/user", []byte(`{"email":"`+email+`"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func TestSessionUserDefaultsToSeededUser(t *testing.T) {
	env := setupTestAPI(t, nil)

	w := env.do(t, http.MethodGet, "/api/session/user", nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decodeBody(t, w)["user"].(map[string]any)
	assert.Equal(t, testDefaultEmail, user["email"])
}

func TestSelectUserScopesData(t *testing.T) {
	env := setupTestAPI(t, nil)
	cookie := sessionCookie(t, env, "Other@Example.com")

	w := env.do(t, http.MethodGet, "/api/session/user", nil, cookie)
	user := decodeBody(t, w)["user"].(map[string]any)
	assert.Equal(t, "other@example.com", user["email"])

	w = env.do(t, http.MethodPost, "/api/import", []byte(sampleImport), cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/daily", nil, cookie)
	assert.Len(t, decodeBody(t, w)["dailyData"], 2)

	w = env.do(t, http.MethodGet, "/api/daily", nil)
	assert.Empty(t, decodeBody(t, w)["dailyData"])
}

func TestSessionFallsBackAfterClear(t *testing.T) {
	env := setupTestAPI(t, nil)
	cookie := sessionCookie(t, env, "other@example.com")

	w := env.do(t, http.MethodDelete, "/api/data", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/session/user", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	user := decodeBody(t, w)["user"].(map[string]any)
	assert.Equal(t, testDefaultEmail, user["email"])
}

func TestSelectUserRejectsInvalidEmail(t *testing.T) {
	env := setupTestAPI(t, nil)

	w := env.do(t, http.MethodPost, "/api/session/user", []byte(`{"email":"not-an-email"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/session/user", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
