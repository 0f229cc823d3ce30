package recognition

import (
	"encoding/base64"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// MaxImageBytes is a courtesy limit; the backend does the real validation.
const MaxImageBytes = 10 << 20

var (
	ErrEmptyImage       = errors.New("image is empty")
	ErrImageTooLarge    = errors.New("image is larger than 10MB")
	ErrUnsupportedImage = errors.New("image type not supported, use JPEG, PNG, WEBP or GIF")
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// NewImage sniffs the content type and applies the courtesy checks.
func NewImage(name string, data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, ErrEmptyImage
	}
	if len(data) > MaxImageBytes {
		return Image{}, ErrImageTooLarge
	}

	contentType := http.DetectContentType(data)
	if !allowedTypes[contentType] {
		return Image{}, errors.Wrapf(ErrUnsupportedImage, "detected %s", contentType)
	}

	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == "" {
		name = "photo"
	}

	return Image{Name: name, ContentType: contentType, Data: data}, nil
}

// DataURL renders the image as a base64 data URL for the JSON transport.
func (i Image) DataURL() string {
	return "data:" + i.ContentType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}
