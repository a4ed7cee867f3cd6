package storage

import (
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *DiskStore {
	t.Helper()
	store, err := NewDiskStore(t.TempDir(), "http://localhost:8391", "test-signing-secret")
	require.NoError(t, err)
	return store
}

func TestDiskStorePutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)

	key, err := store.Put("avatars", []byte("image-bytes"), "webp")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "avatars/"))
	assert.True(t, strings.HasSuffix(key, ".webp"))

	got, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), got)
	assert.True(t, store.Exists(key))
}

func TestDiskStorePutIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	key1, err := store.Put("media", []byte("same content"), ".webp")
	require.NoError(t, err)
	key2, err := store.Put("media", []byte("same content"), "webp")
	require.NoError(t, err)
	assert.Equal(t, key1, key2)
}

func TestDiskStoreRejectsTraversal(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get("../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = store.Get("/etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = store.Put("../escape", []byte("x"), "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestDiskStoreDeleteMissingIsNoop(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Delete("avatars/deadbeef.webp"))
}

func TestSignedURLVerify(t *testing.T) {
	store := newTestStore(t)

	key, err := store.Put("attachments", []byte("report.pdf bytes"), "pdf")
	require.NoError(t, err)

	signed, err := store.SignedURL(key, time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "/files/"+key, u.Path)

	exp, err := strconv.ParseInt(u.Query().Get("exp"), 10, 64)
	require.NoError(t, err)
	sig := u.Query().Get("sig")

	assert.NoError(t, store.Verify(key, exp, sig))

	t.Run("tampered key fails", func(t *testing.T) {
		assert.ErrorIs(t, store.Verify("attachments/other.pdf", exp, sig), ErrBadSignature)
	})

	t.Run("tampered expiry fails", func(t *testing.T) {
		assert.ErrorIs(t, store.Verify(key, exp+60, sig), ErrBadSignature)
	})

	t.Run("expired fails", func(t *testing.T) {
		past := time.Now().Add(-time.Minute).Unix()
		pastSig := store.sign(key, past)
		assert.ErrorIs(t, store.Verify(key, past, pastSig), ErrExpiredURL)
	})
}

func TestSignedURLDefaultTTL(t *testing.T) {
	store := newTestStore(t)

	key, err := store.Put("attachments", []byte("x"), "bin")
	require.NoError(t, err)

	signed, err := store.SignedURL(key, 0)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	exp, err := strconv.ParseInt(u.Query().Get("exp"), 10, 64)
	require.NoError(t, err)

	earliest := time.Now().Add(DefaultSignedURLTTL - time.Minute).Unix()
	latest := time.Now().Add(DefaultSignedURLTTL + time.Minute).Unix()
	assert.GreaterOrEqual(t, exp, earliest)
	assert.LessOrEqual(t, exp, latest)
}
