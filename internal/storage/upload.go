package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Uploader is the part of R2Client the scan flow depends on.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageKey builds a unique object key for a dish photo.
func ImageKey(dish, contentType string) string {
	ext, ok := extensions[contentType]
	if !ok {
		ext = ".bin"
	}
	return fmt.Sprintf("dishes/%s/%s%s", slug(dish), uuid.New().String(), ext)
}

// UploadImage stores an in-memory photo and returns its public URL.
func UploadImage(ctx context.Context, u Uploader, dish string, data []byte, contentType string) (string, error) {
	return u.Upload(ctx, ImageKey(dish, contentType), bytes.NewReader(data), contentType)
}

func slug(s string) string {
	out := make([]byte, 0, len(s))
	dash := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			out = append(out, c)
			dash = false
		case c >= 'A' && c <= 'Z':
			out = append(out, c+('a'-'A'))
			dash = false
		default:
			if !dash && len(out) > 0 {
				out = append(out, '-')
				dash = true
			}
		}
	}
	for len(out) > 0 && out[len(out)-1] == '-' {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return "unknown"
	}
	return string(out)
}
