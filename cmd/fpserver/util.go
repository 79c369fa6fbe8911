package main

import (
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Media types accepted in data URIs.
var imageTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/bmp",
	"image/tiff",
	"image/webp",
	"image/wsq",
	"image/x-wsq",
	"image/x-portable-anymap",
	"image/x-portable-bitmap",
	"image/x-portable-graymap",
	"image/x-portable-pixmap",
}

// decodePayload returns the raw bytes of a Base64 image, with or without a
// data URI prefix.
func decodePayload(payload string) ([]byte, error) {
	if strings.HasPrefix(payload, "data:") {
		parts := strings.SplitN(payload, ",", 2)
		if len(parts) != 2 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid data URI")
		}
		meta := strings.ToLower(strings.TrimPrefix(parts[0], "data:"))
		if !strings.HasSuffix(meta, ";base64") {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Data URI must be base64 encoded")
		}
		if !supported(strings.TrimSuffix(meta, ";base64")) {
			return nil, fiber.NewError(fiber.StatusUnsupportedMediaType, "Unsupported image type")
		}
		payload = parts[1]
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Failed to decode base64: "+err.Error())
	}
	return decoded, nil
}

func supported(mime string) bool {
	// Parameters such as ;charset may precede ;base64.
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	for _, t := range imageTypes {
		if mime == t {
			return true
		}
	}
	return false
}
