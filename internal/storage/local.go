package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Local keeps objects on disk. Its signed URLs point at the API's own
// /files route, which checks the HMAC before serving.
type Local struct {
	dir     string
	secret  []byte
	baseURL string
	now     func() time.Time
}

func NewLocal(dir string, secret []byte, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{dir: dir, secret: secret, baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}, nil
}

func (l *Local) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(l.dir, filepath.FromSlash(clean)), nil
}

func (l *Local) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		_ = os.Remove(p)
		return fmt.Errorf("write object: %w", err)
	}
	if size >= 0 && n != size {
		_ = os.Remove(p)
		return fmt.Errorf("short write: %d of %d bytes", n, size)
	}
	return nil
}

func (l *Local) SignedURL(ctx context.Context, key, fileName string, ttl time.Duration) (string, error) {
	p, err := l.path(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	expires := l.now().Add(ttl).Unix()
	v := url.Values{}
	v.Set("expires", strconv.FormatInt(expires, 10))
	v.Set("sig", l.sign(key, expires))
	if fileName != "" {
		v.Set("name", fileName)
	}
	return l.baseURL + "/files/" + key + "?" + v.Encode(), nil
}

// Open verifies a signed request and opens the object.
func (l *Local) Open(key, expires, sig string) (*os.File, error) {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil || l.now().Unix() > exp {
		return nil, ErrBadSignature
	}
	if !hmac.Equal([]byte(sig), []byte(l.sign(key, exp))) {
		return nil, ErrBadSignature
	}
	p, err := l.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

func (l *Local) Delete(ctx context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (l *Local) sign(key string, expires int64) string {
	mac := hmac.New(sha256.New, l.secret)
	fmt.Fprintf(mac, "%s\n%d", key, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

