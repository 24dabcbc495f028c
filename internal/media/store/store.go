// Package store allocates opaque handles for generated audio and image bytes.
package store

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("media: handle not found")

// Handle is an opaque reference to a stored media resource.
type Handle struct {
	Key      string `json:"key"`
	MimeType string `json:"mime_type"`
	Size     int    `json:"size"`
}

func (h Handle) IsZero() bool { return strings.TrimSpace(h.Key) == "" }

type Store interface {
	// Put stores data under a freshly allocated key.
	Put(ctx context.Context, mimeType string, data []byte) (Handle, error)
	Open(ctx context.Context, key string) ([]byte, string, error)
	// Revoke releases key. Revoking an unknown key is not an error.
	Revoke(ctx context.Context, key string) error
	Close() error
}

// DataURI renders data as a data: URI of mimeType.
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// OpenDataURI loads h and renders it as a data: URI.
func OpenDataURI(ctx context.Context, s Store, h Handle) (string, error) {
	data, mime, err := s.Open(ctx, h.Key)
	if err != nil {
		return "", err
	}
	return DataURI(mime, data), nil
}
