package server

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngUpload(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 200, A: 255})
		}
	}
	buf := bytes.NewBuffer(nil)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestUploadAvatar(t *testing.T) {
	_, app := newTestServer(t)
	token, _ := signupUser(t, app, "Ada Lovelace", "ada@example.com")

	resp := doMultipart(t, app, "/api/uploads/avatar", token, "me.png", "image/png", pngUpload(t, 1200, 900))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	key, _ := body["key"].(string)
	assert.True(t, strings.HasPrefix(key, "avatars/"), "key: %s", key)
	assert.EqualValues(t, 300, body["width"])
	assert.EqualValues(t, 225, body["height"])

	user, _ := body["user"].(map[string]any)
	require.NotNil(t, user)
	avatarURL, _ := user["avatar_url"].(string)
	assert.Contains(t, avatarURL, "/files/avatars/")

	// Avatars are public: no auth, no signature.
	req := httptest.NewRequest(http.MethodGet, "/files/"+key, nil)
	fileResp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer func() { _ = fileResp.Body.Close() }()
	require.Equal(t, http.StatusOK, fileResp.StatusCode)

	content, err := io.ReadAll(fileResp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("RIFF")), "stored avatar should be WebP")
}

func TestUploadMedia(t *testing.T) {
	_, app := newTestServer(t)
	token, _ := signupUser(t, app, "Ada Lovelace", "ada@example.com")

	t.Run("small image keeps its size", func(t *testing.T) {
		resp := doMultipart(t, app, "/api/uploads/media", token, "shot.png", "image/png", pngUpload(t, 640, 480))
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.EqualValues(t, 640, body["width"])
		assert.EqualValues(t, 480, body["height"])
		assert.True(t, strings.HasPrefix(body["key"].(string), "media/"))
	})

	t.Run("non-image rejected", func(t *testing.T) {
		resp := doMultipart(t, app, "/api/uploads/media", token, "notes.txt", "text/plain", []byte("plain text"))
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing file field", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/uploads/media", token, map[string]string{"file": "nope"})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestUploadAttachment_SignedURLs(t *testing.T) {
	_, app := newTestServer(t)
	token, _ := signupUser(t, app, "Ada Lovelace", "ada@example.com")

	content := []byte("%PDF-1.4 pretend contract")
	resp := doMultipart(t, app, "/api/uploads/attachment", token, "contract.pdf", "application/pdf", content)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	key, _ := body["file_url"].(string)
	assert.True(t, strings.HasPrefix(key, "attachments/"), "key: %s", key)
	assert.Equal(t, "contract.pdf", body["file_name"])
	assert.EqualValues(t, len(content), body["file_size"])

	signed, _ := body["url"].(string)
	require.NotEmpty(t, signed)
	parsed, err := url.Parse(signed)
	require.NoError(t, err)

	// The signed URL downloads the original bytes without auth.
	req := httptest.NewRequest(http.MethodGet, parsed.Path+"?"+parsed.RawQuery, nil)
	fileResp, terr := app.Test(req, 5000)
	require.NoError(t, terr)
	require.Equal(t, http.StatusOK, fileResp.StatusCode)
	got, rerr := io.ReadAll(fileResp.Body)
	_ = fileResp.Body.Close()
	require.NoError(t, rerr)
	assert.Equal(t, content, got)

	// Without a signature the attachment is not served.
	req = httptest.NewRequest(http.MethodGet, parsed.Path, nil)
	fileResp, terr = app.Test(req, 5000)
	require.NoError(t, terr)
	defer func() { _ = fileResp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, fileResp.StatusCode)

	// A tampered signature fails verification.
	q := parsed.Query()
	q.Set("sig", strings.Repeat("0", len(q.Get("sig"))))
	req = httptest.NewRequest(http.MethodGet, parsed.Path+"?"+q.Encode(), nil)
	fileResp, terr = app.Test(req, 5000)
	require.NoError(t, terr)
	defer func() { _ = fileResp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, fileResp.StatusCode)
}

func TestServeFile_UnknownKey(t *testing.T) {
	_, app := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/files/media/doesnotexist.webp", nil)
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
