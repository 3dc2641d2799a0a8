package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrEmptyContent is returned when the content string is empty or whitespace.
	ErrEmptyContent = errors.New("content cannot be empty")
	// ErrGenerationFailed is returned when the underlying encoder fails.
	ErrGenerationFailed = errors.New("failed to generate QR code")
)

// defaultSize is the image edge in pixels when no size is given. 256px scans
// reliably from a phone camera at typical screen densities.
const defaultSize = 256

// PNG encodes content as a QR code and returns the PNG bytes.
func PNG(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = defaultSize
	}
	png, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrGenerationFailed, err)
	}
	return png, nil
}

// DataURL encodes content as a QR code and returns it as a
// data:image/png;base64 URL, ready to drop into an <img> tag. The enrollment
// endpoint uses this to ship the otpauth URI to the dashboard in one response.
func DataURL(content string, size int) (string, error) {
	png, err := PNG(content, size)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(png)), nil
}
