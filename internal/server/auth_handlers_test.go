package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	_, app := newTestServer(t)

	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
	}{
		{
			name: "success",
			body: map[string]string{
				"full_name": "Ada Lovelace",
				"email":     "ada@example.com",
				"password":  "Str0ngPass!234",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "duplicate email",
			body: map[string]string{
				"full_name": "Ada Again",
				"email":     "ada@example.com",
				"password":  "Str0ngPass!234",
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "weak password",
			body: map[string]string{
				"full_name": "Bob Short",
				"email":     "bob@example.com",
				"password":  "short",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "invalid email",
			body: map[string]string{
				"full_name": "Bob NoAt",
				"email":     "not-an-email",
				"password":  "Str0ngPass!234",
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", tt.body)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestSignup_NormalizesEmailCase(t *testing.T) {
	_, app := newTestServer(t)

	signupUser(t, app, "Ada Lovelace", "Ada@Example.com")

	// Login with the lowercase form works.
	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "Str0ngPass!234",
	})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	_, app := newTestServer(t)
	signupUser(t, app, "Ada Lovelace", "ada@example.com")

	t.Run("wrong password", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "ada@example.com",
			"password": "WrongPass!2345",
		})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown email", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "nobody@example.com",
			"password": "Str0ngPass!234",
		})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("success", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "ada@example.com",
			"password": "Str0ngPass!234",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.NotEmpty(t, body["token"])
	})
}

func TestSession(t *testing.T) {
	_, app := newTestServer(t)
	token, _ := signupUser(t, app, "Ada Lovelace", "ada@example.com")

	resp := doJSON(t, app, http.MethodGet, "/api/auth/session", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	user, _ := body["user"].(map[string]any)
	require.NotNil(t, user)
	assert.Equal(t, "Ada Lovelace", user["full_name"])
	// Password hash never leaves the API.
	assert.NotContains(t, user, "password")
}

func TestSession_Unauthorized(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/api/auth/session", "", nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/auth/session", "garbage.token.here", nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout_RevokesToken(t *testing.T) {
	_, app := newTestServer(t)
	token, _ := signupUser(t, app, "Ada Lovelace", "ada@example.com")

	resp := doJSON(t, app, http.MethodPost, "/api/auth/logout", token, nil)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/auth/session", token, nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefresh_RotatesToken(t *testing.T) {
	_, app := newTestServer(t)
	token, _ := signupUser(t, app, "Ada Lovelace", "ada@example.com")

	resp := doJSON(t, app, http.MethodPost, "/api/auth/refresh", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	newToken, _ := body["token"].(string)
	require.NotEmpty(t, newToken)
	assert.NotEqual(t, token, newToken)

	// Old token is revoked, new one works.
	resp = doJSON(t, app, http.MethodGet, "/api/auth/session", token, nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/auth/session", newToken, nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPasswordResetFlow(t *testing.T) {
	s, app := newTestServer(t)
	_, userID := signupUser(t, app, "Ada Lovelace", "ada@example.com")

	resp := doJSON(t, app, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{
		"email": "ada@example.com",
	})
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The token lives in Redis; grab it the way an email link would carry it.
	keys, err := s.redis.Keys(t.Context(), resetTokenPrefix+"*").Result()
	require.NoError(t, err)
	require.Len(t, keys, 1)
	resetToken := keys[0][len(resetTokenPrefix):]

	resp = doJSON(t, app, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"token":    resetToken,
		"password": "N3wStr0ngPass!x",
	})
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Old password no longer works, the new one does.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "Str0ngPass!234",
	})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "N3wStr0ngPass!x",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	user, _ := body["user"].(map[string]any)
	require.NotNil(t, user)
	assert.EqualValues(t, userID, user["id"])

	// A token is single use.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"token":    resetToken,
		"password": "An0therPass!xyz",
	})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWSTicket_SingleUse(t *testing.T) {
	s, app := newTestServer(t)
	token, userID := signupUser(t, app, "Ada Lovelace", "ada@example.com")

	resp := doJSON(t, app, http.MethodPost, "/api/ws/ticket", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	ticket, _ := body["ticket"].(string)
	require.NotEmpty(t, ticket)

	gotID, err := s.consumeWSTicket(t.Context(), ticket)
	require.NoError(t, err)
	assert.Equal(t, userID, gotID)

	_, err = s.consumeWSTicket(t.Context(), ticket)
	assert.Error(t, err, "tickets are single use")
}

func TestHealthEndpoints(t *testing.T) {
	_, app := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
