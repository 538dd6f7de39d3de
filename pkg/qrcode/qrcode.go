package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"

	goqrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultSize = 256
	MinSize     = 64
	MaxSize     = 1024

	// MaxContentLength is a conservative byte limit for medium error correction.
	MaxContentLength = 2048
)

var (
	ErrEmptyContent    = errors.New("qrcode: content is empty")
	ErrContentTooLarge = errors.New("qrcode: content too large")
)

// Generate returns a PNG QR code of size x size pixels.
func Generate(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if len(content) > MaxContentLength {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrContentTooLarge, len(content), MaxContentLength)
	}

	png, err := goqrcode.Encode(content, goqrcode.Medium, ClampSize(size))
	if err != nil {
		return nil, fmt.Errorf("qrcode: encode: %w", err)
	}
	return png, nil
}

// GenerateBase64Image returns the QR code as a PNG data URI for <img src>.
func GenerateBase64Image(content string, size int) (string, error) {
	png, err := Generate(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// ClampSize normalises a requested pixel size.
func ClampSize(size int) int {
	switch {
	case size == 0:
		return DefaultSize
	case size < MinSize:
		return MinSize
	case size > MaxSize:
		return MaxSize
	}
	return size
}
