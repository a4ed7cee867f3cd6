package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionFlow(t *testing.T) {
	_, app := newTestServer(t)
	adaToken, adaID := signupUser(t, app, "Ada Lovelace", "ada@example.com")
	graceToken, graceID := signupUser(t, app, "Grace Hopper", "grace@example.com")

	// Ada sends a request to Grace.
	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/connections/%d", graceID), adaToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	conn := decodeBody(t, resp)
	assert.Equal(t, "pending", conn["status"])
	connID := uint(conn["id"].(float64))

	// Sending again while pending conflicts, from either side.
	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/connections/%d", graceID), adaToken, nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/connections/%d", adaID), graceToken, nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// It shows up in Grace's pending and Ada's sent lists.
	resp = doJSON(t, app, http.MethodGet, "/api/connections/pending", graceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decodeList(t, resp), 1)

	resp = doJSON(t, app, http.MethodGet, "/api/connections/sent", adaToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sent := decodeList(t, resp)
	require.Len(t, sent, 1)
	assert.Equal(t, true, sent[0]["is_requester"])

	// Only the recipient can accept.
	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/connections/%d/accept", connID), adaToken, nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/connections/%d/accept", connID), graceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	conn = decodeBody(t, resp)
	assert.Equal(t, "accepted", conn["status"])

	// Accepting twice conflicts.
	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/connections/%d/accept", connID), graceToken, nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Both sides now list the connection; status reflects it.
	resp = doJSON(t, app, http.MethodGet, "/api/connections", adaToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decodeList(t, resp), 1)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/connections/status/%d", adaID), graceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decodeBody(t, resp)
	assert.Equal(t, "accepted", status["status"])
	assert.Equal(t, false, status["is_requester"])
}

func TestSendConnectionRequest_Validation(t *testing.T) {
	_, app := newTestServer(t)
	token, id := signupUser(t, app, "Ada Lovelace", "ada@example.com")

	// Self-connection.
	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/connections/%d", id), token, nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown receiver.
	resp = doJSON(t, app, http.MethodPost, "/api/connections/9999", token, nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRejectedPairCanRetry(t *testing.T) {
	_, app := newTestServer(t)
	adaToken, _ := signupUser(t, app, "Ada Lovelace", "ada@example.com")
	graceToken, graceID := signupUser(t, app, "Grace Hopper", "grace@example.com")

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/connections/%d", graceID), adaToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	connID := uint(decodeBody(t, resp)["id"].(float64))

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/connections/%d/reject", connID), graceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "rejected", decodeBody(t, resp)["status"])

	// After a rejection the requester may try again.
	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/connections/%d", graceID), adaToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "pending", decodeBody(t, resp)["status"])
}

func TestRemoveConnection(t *testing.T) {
	_, app := newTestServer(t)
	adaToken, _ := signupUser(t, app, "Ada Lovelace", "ada@example.com")
	graceToken, graceID := signupUser(t, app, "Grace Hopper", "grace@example.com")
	outsiderToken, _ := signupUser(t, app, "Alan Turing", "alan@example.com")

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/connections/%d", graceID), adaToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	connID := uint(decodeBody(t, resp)["id"].(float64))

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/connections/%d/accept", connID), graceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	// A third party cannot remove it.
	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/connections/%d", connID), outsiderToken, nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/connections/%d", connID), graceToken, nil)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/connections/status/%d", graceID), adaToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "none", decodeBody(t, resp)["status"])
}
