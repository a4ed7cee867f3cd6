package storage

import (
	"bytes"
	"errors"
	"image"
	"image/draw"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"mime"
	"net/http"
	"strings"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// AvatarMaxWidth and AvatarMaxHeight bound resized avatar images.
	AvatarMaxWidth  = 300
	AvatarMaxHeight = 300

	// MediaMaxWidth and MediaMaxHeight bound resized post/message media.
	MediaMaxWidth  = 800
	MediaMaxHeight = 600

	// WebPQuality is the encode quality for stored images.
	WebPQuality = 70
)

// ErrUnsupportedImage is returned when content does not decode as an allowed
// image format.
var ErrUnsupportedImage = errors.New("unsupported image format")

// ImageKind selects the resize bounds for an uploaded image.
type ImageKind string

const (
	ImageKindAvatar ImageKind = "avatar"
	ImageKindMedia  ImageKind = "media"
)

// ProcessImage validates, decodes, resizes and re-encodes an uploaded image
// as WebP. Returns the encoded bytes and the final dimensions.
func ProcessImage(content []byte, kind ImageKind) ([]byte, int, int, error) {
	if !IsAllowedImageMIME(http.DetectContentType(content)) {
		return nil, 0, 0, ErrUnsupportedImage
	}

	decoded, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, 0, 0, ErrUnsupportedImage
	}
	if !isSupportedDecodedFormat(format) {
		return nil, 0, 0, ErrUnsupportedImage
	}

	maxW, maxH := MediaMaxWidth, MediaMaxHeight
	if kind == ImageKindAvatar {
		maxW, maxH = AvatarMaxWidth, AvatarMaxHeight
	}
	resized := resizeToFit(decoded, maxW, maxH)

	encoded, err := encodeWebP(resized, WebPQuality)
	if err != nil {
		return nil, 0, 0, err
	}

	b := resized.Bounds()
	return encoded, b.Dx(), b.Dy(), nil
}

// IsAllowedImageMIME reports whether a content type is an accepted upload
// image type.
func IsAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		// Re-draw so the encoder always sees an RGBA image.
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
		return dst
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
