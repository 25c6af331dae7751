package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxImageSize caps uploaded post images
const MaxImageSize = 10 << 20

var (
	ErrNotAnImage    = errors.New("not a gif, jpeg or png image")
	ErrImageTooLarge = errors.New("image exceeds the upload limit")
)

var allowedImageTypes = map[string]string{
	"image/gif":  ".gif",
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

var unsafeFilenameChars = regexp.MustCompile(`[^-\w.]`)

// ValidateImage checks that data is a decodable gif, jpeg or png and returns
// its detected MIME type
func ValidateImage(data []byte) (string, error) {
	if len(data) > MaxImageSize {
		return "", ErrImageTooLarge
	}
	mtype := mimetype.Detect(data)
	if _, ok := allowedImageTypes[mtype.String()]; !ok {
		return "", ErrNotAnImage
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", ErrNotAnImage
	}
	return mtype.String(), nil
}

// CleanFilename strips directories and unsafe characters, keeping the
// uploader's name recognisable
func CleanFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		name = "image"
	}
	return name
}

// ImageFilename cleans filename and swaps its extension for the one that
// matches mimeType, so the stored file is served as the image it is
func ImageFilename(filename, mimeType string) string {
	name := CleanFilename(filename)
	ext, ok := allowedImageTypes[mimeType]
	if !ok {
		return name
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "image"
	}
	return base + ext
}

// alternateName appends a short random suffix before the extension, used
// when the plain name is already taken
func alternateName(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:7]
	return fmt.Sprintf("%s_%s%s", base, suffix, ext)
}

// getContentTypeForImage returns the MIME type for image file extensions
func getContentTypeForImage(extension string) string {
	switch strings.ToLower(extension) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
