// Package media decodes the inline images the browser sends as data URLs.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

var (
	ErrInvalidDataURL = errors.New("invalid data url")
	ErrNotImage       = errors.New("data is not an image")
	ErrTooLarge       = errors.New("image exceeds the size limit")
)

// Image is a decoded inline image.
type Image struct {
	// MIMEType is the sniffed type, not the one the data URL declared.
	MIMEType string
	Data     []byte
	Width    int
	Height   int
}

func (i *Image) Size() int {
	return len(i.Data)
}

// Extension returns the file extension for the image type, including the dot.
func (i *Image) Extension() string {
	ext := mimetype.Lookup(i.MIMEType)
	if ext == nil || ext.Extension() == "" {
		return ".bin"
	}
	return ext.Extension()
}

// FileName builds a unique object name carrying the image's extension.
func (i *Image) FileName(kind string) string {
	return fmt.Sprintf("%s-%d-%s%s", kind, time.Now().UnixMilli(), uuid.NewString()[:8], i.Extension())
}

// IsDataURL reports whether s carries inline data rather than a link.
func IsDataURL(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "data:")
}

// IsRemoteURL reports whether s is an http(s) link.
func IsRemoteURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

// ParseDataURL decodes a base64 data URL and checks that the payload is an
// image. maxBytes <= 0 disables the size check.
func ParseDataURL(s string, maxBytes int64) (*Image, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return nil, ErrInvalidDataURL
	}

	header, payload, ok := strings.Cut(s[len("data:"):], ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing payload", ErrInvalidDataURL)
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURL)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
		}
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}

	return Decode(data)
}

// Decode sniffs data and reads its dimensions.
func Decode(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrNotImage
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}

	img := &Image{
		MIMEType: baseType(mt.String()),
		Data:     data,
	}
	img.Width, img.Height = Dimensions(data)
	return img, nil
}

// Dimensions returns the pixel size of data, or zeros when the format has
// no registered decoder.
func Dimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func baseType(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		return strings.TrimSpace(mime[:i])
	}
	return mime
}

// Metadata is what the project keeps about its original image.
func (i *Image) Metadata(fileName string) map[string]interface{} {
	meta := map[string]interface{}{
		"fileName": fileName,
		"fileSize": i.Size(),
		"fileType": i.MIMEType,
	}
	if i.Width > 0 && i.Height > 0 {
		meta["width"] = i.Width
		meta["height"] = i.Height
	}
	return meta
}
