package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// EncodeDataURI returns `data:<mime>;base64,<payload>`.
func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// IsDataURI reports whether value is a data URI.
func IsDataURI(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), "data:")
}

// ParseDataURI splits a base64 data URI into its MIME type and payload.
func ParseDataURI(value string) (string, []byte, error) {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "data:") {
		return "", nil, errors.New("media: not a data URI")
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(trimmed, "data:"), ",")
	if !ok {
		return "", nil, errors.New("media: data URI missing payload separator")
	}
	mime, params, _ := strings.Cut(header, ";")
	if !strings.Contains(params, "base64") {
		return mime, []byte(payload), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("media: decode data URI: %w", err)
	}
	return mime, data, nil
}
