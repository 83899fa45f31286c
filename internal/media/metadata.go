// Package media checks uploaded images and strips their metadata before they
// leave the server.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"net/http"
)

var ErrUnsupportedType = errors.New("media: unsupported image type")

// AllowedTypes are the sniffed content types accepted for upload.
var AllowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Sanitize sniffs data, rejects anything that is not an allowed image and
// strips metadata where the format allows. It returns the cleaned bytes, the
// content type and a file extension for it.
func Sanitize(data []byte) ([]byte, string, string, error) {
	contentType := http.DetectContentType(data)
	ext, ok := AllowedTypes[contentType]
	if !ok {
		return nil, "", "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	clean, err := StripMetadata(data, contentType)
	if err != nil {
		return nil, "", "", err
	}
	return clean, contentType, ext, nil
}

// StripMetadata re-encodes JPEG and PNG images to drop EXIF, GPS and other
// metadata. Other types are returned unchanged.
func StripMetadata(data []byte, contentType string) ([]byte, error) {
	switch contentType {
	case "image/jpeg":
		return stripJPEG(data)
	case "image/png":
		return stripPNG(data)
	default:
		return data, nil
	}
}

func stripJPEG(data []byte) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding jpeg: %w", err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func stripPNG(data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding png: %w", err)
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
