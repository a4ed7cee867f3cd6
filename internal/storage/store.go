// Package storage provides the object store for uploaded files: disk-backed
// content-addressed blobs plus HMAC-signed download URLs.
package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultSignedURLTTL is how long a signed download URL stays valid.
const DefaultSignedURLTTL = time.Hour

var (
	// ErrInvalidKey is returned for keys that escape the store root or are
	// otherwise malformed.
	ErrInvalidKey = errors.New("invalid object key")
	// ErrExpiredURL is returned when a signed URL's expiry has passed.
	ErrExpiredURL = errors.New("signed url expired")
	// ErrBadSignature is returned when a signed URL fails verification.
	ErrBadSignature = errors.New("signed url signature mismatch")
)

// DiskStore is a content-addressed object store rooted at a directory.
// Object keys are "<bucket>/<sha256-hex>.<ext>".
type DiskStore struct {
	root    string
	baseURL string
	secret  []byte
}

// NewDiskStore creates a store rooted at root. baseURL is prepended to signed
// URLs, secret keys the URL signatures.
func NewDiskStore(root, baseURL, secret string) (*DiskStore, error) {
	if root == "" {
		return nil, errors.New("storage root is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &DiskStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  []byte(secret),
	}, nil
}

// Put writes content into the bucket and returns the object key. The key is
// derived from the content hash, so re-uploading identical bytes is
// idempotent.
func (s *DiskStore) Put(bucket string, content []byte, ext string) (string, error) {
	if !validBucket(bucket) {
		return "", ErrInvalidKey
	}
	sum := sha256.Sum256(content)
	key := bucket + "/" + hex.EncodeToString(sum[:]) + normalizeExt(ext)

	path, err := s.objectPath(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return key, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return "", err
	}
	return key, nil
}

// Get reads an object's content by key.
func (s *DiskStore) Get(key string) ([]byte, error) {
	path, err := s.objectPath(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path) // #nosec G304: path is validated against the store root
}

// Exists reports whether an object is present.
func (s *DiskStore) Exists(key string) bool {
	path, err := s.objectPath(key)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(path)
	return statErr == nil
}

// Delete removes an object. Missing objects are not an error.
func (s *DiskStore) Delete(key string) error {
	path, err := s.objectPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path resolves the absolute filesystem path for a key, for serving with
// sendfile-style handlers.
func (s *DiskStore) Path(key string) (string, error) {
	return s.objectPath(key)
}

// SignedURL returns a time-limited download URL for the object key.
func (s *DiskStore) SignedURL(key string, ttl time.Duration) (string, error) {
	if _, err := s.objectPath(key); err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	exp := time.Now().Add(ttl).Unix()
	sig := s.sign(key, exp)

	q := url.Values{}
	q.Set("exp", strconv.FormatInt(exp, 10))
	q.Set("sig", sig)
	return fmt.Sprintf("%s/files/%s?%s", s.baseURL, key, q.Encode()), nil
}

// Verify checks the expiry and signature extracted from a signed URL.
func (s *DiskStore) Verify(key string, exp int64, sig string) error {
	if time.Now().Unix() > exp {
		return ErrExpiredURL
	}
	expected := s.sign(key, exp)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrBadSignature
	}
	return nil
}

func (s *DiskStore) sign(key string, exp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s:%d", key, exp)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *DiskStore) objectPath(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, clean), nil
}

func validBucket(bucket string) bool {
	if bucket == "" {
		return false
	}
	for _, r := range bucket {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
