// Package storage keeps employee documents in an object store and hands out
// time-limited download URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotConfigured = errors.New("object storage not configured")
	ErrNotFound      = errors.New("object not found")
	ErrBadSignature  = errors.New("invalid or expired signature")
)

type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// SignedURL returns a URL that serves the object until ttl elapses.
	SignedURL(ctx context.Context, key, fileName string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// DocumentKey builds the object key of a member document.
func DocumentKey(orgID, memberID int64, fileName string) string {
	return fmt.Sprintf("org/%d/member/%d/%s/%s", orgID, memberID, uuid.NewString(), SafeName(fileName))
}

// SafeName strips directories and characters that do not belong in an object key.
func SafeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}

// Unconfigured is used when no driver is set up; every call fails.
type Unconfigured struct{}

func (Unconfigured) Put(context.Context, string, io.Reader, int64, string) error {
	return ErrNotConfigured
}

func (Unconfigured) SignedURL(context.Context, string, string, time.Duration) (string, error) {
	return "", ErrNotConfigured
}

func (Unconfigured) Delete(context.Context, string) error { return ErrNotConfigured }
