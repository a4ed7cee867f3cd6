package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"pronet/internal/models"
	"pronet/internal/storage"

	"github.com/gofiber/fiber/v2"
)

const maxAttachmentSize = 10 * 1024 * 1024

// readUpload extracts the "file" part of a multipart request.
func readUpload(c *fiber.Ctx) (*multipart.FileHeader, []byte, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, nil, models.NewValidationError("A 'file' form field is required")
	}
	if header.Size > maxAttachmentSize {
		return nil, nil, models.NewValidationError("File too large (max 10 MB)")
	}

	f, err := header.Open()
	if err != nil {
		return nil, nil, models.NewInternalError(err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, models.NewInternalError(err)
	}
	return header, content, nil
}

// UploadAvatar handles POST /api/uploads/avatar: decodes, resizes to fit
// 300x300, re-encodes as WebP and sets the avatar on the caller's profile.
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	_, content, err := readUpload(c)
	if err != nil {
		return respondError(c, err)
	}

	resized, width, height, err := storage.ProcessImage(content, storage.ImageKindAvatar)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) {
			return respondError(c, models.NewValidationError("Unsupported image format"))
		}
		return respondError(c, models.NewInternalError(err))
	}

	key, err := s.store.Put("avatars", resized, "webp")
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	userID := currentUserID(c)
	user, err := s.users.SetAvatar(c.UserContext(), userID, s.publicURL(key))
	if err != nil {
		return respondError(c, err)
	}

	s.publishUserEvent(c.UserContext(), userID, EventProfileUpdated, user)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"key":    key,
		"url":    user.AvatarURL,
		"width":  width,
		"height": height,
		"user":   user,
	})
}

// UploadMedia handles POST /api/uploads/media: post images, resized to fit
// 800x600 and re-encoded as WebP. The returned URL goes into a post's
// media_url.
func (s *Server) UploadMedia(c *fiber.Ctx) error {
	_, content, err := readUpload(c)
	if err != nil {
		return respondError(c, err)
	}

	resized, width, height, err := storage.ProcessImage(content, storage.ImageKindMedia)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) {
			return respondError(c, models.NewValidationError("Unsupported image format"))
		}
		return respondError(c, models.NewInternalError(err))
	}

	key, err := s.store.Put("media", resized, "webp")
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"key":    key,
		"url":    s.publicURL(key),
		"width":  width,
		"height": height,
	})
}

// UploadAttachment handles POST /api/uploads/attachment: message attachments
// of any type, stored verbatim with size and MIME captured. The response
// fields feed directly into a send-message request.
func (s *Server) UploadAttachment(c *fiber.Ctx) error {
	header, content, err := readUpload(c)
	if err != nil {
		return respondError(c, err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}

	ext := strings.TrimPrefix(filepath.Ext(header.Filename), ".")
	if ext == "" {
		ext = "bin"
	}

	key, err := s.store.Put("attachments", content, ext)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	url, err := s.store.SignedURL(key, storage.DefaultSignedURLTTL)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"file_url":  key,
		"url":       url,
		"file_name": header.Filename,
		"file_type": contentType,
		"file_size": header.Size,
	})
}

// ServeFile handles GET /files/*. Avatars and post media are public;
// attachments require a valid signed URL.
func (s *Server) ServeFile(c *fiber.Ctx) error {
	key := c.Params("*")
	if key == "" {
		return respondError(c, models.NewValidationError("Missing file key"))
	}

	if strings.HasPrefix(key, "attachments/") {
		exp := int64(c.QueryInt("exp"))
		sig := c.Query("sig")
		if err := s.store.Verify(key, exp, sig); err != nil {
			return respondError(c, models.NewUnauthorizedError("Invalid or expired file signature"))
		}
	}

	path, err := s.store.Path(key)
	if err != nil {
		return respondError(c, models.NewValidationError("Invalid file key"))
	}
	if !s.store.Exists(key) {
		return respondError(c, models.NewNotFoundError("File", key))
	}

	return c.SendFile(path)
}

// publicURL builds the unauthenticated URL for a public-bucket object.
func (s *Server) publicURL(key string) string {
	return strings.TrimRight(s.config.PublicBaseURL, "/") + "/files/" + key
}
