package storage

import (
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeName(t *testing.T) {
	assert.Equal(t, "passwd", SafeName("../../etc/passwd"))
	assert.Equal(t, "My_Contract_v2.pdf", SafeName(`C:\Users\me\My Contract v2.pdf`))
	assert.Equal(t, "file", SafeName("..."))
	assert.Equal(t, "file", SafeName(""))
}

func TestDocumentKey(t *testing.T) {
	k := DocumentKey(3, 9, "cv final.pdf")
	assert.True(t, strings.HasPrefix(k, "org/3/member/9/"))
	assert.True(t, strings.HasSuffix(k, "/cv_final.pdf"))
	assert.NotEqual(t, k, DocumentKey(3, 9, "cv final.pdf"))
}

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir(), []byte("secret"), "http://hr.local/")
	require.NoError(t, err)

	key := DocumentKey(1, 2, "contract.txt")
	body := "signed contract"
	require.NoError(t, l.Put(ctx, key, strings.NewReader(body), int64(len(body)), "text/plain"))

	raw, err := l.SignedURL(ctx, key, "contract.txt", time.Minute)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/files/"+key, u.Path)

	f, err := l.Open(key, u.Query().Get("expires"), u.Query().Get("sig"))
	require.NoError(t, err)
	got, _ := io.ReadAll(f)
	f.Close()
	assert.Equal(t, body, string(got))

	_, err = l.Open(key, u.Query().Get("expires"), "deadbeef")
	assert.ErrorIs(t, err, ErrBadSignature)
	_, err = l.Open("org/1/member/3/other.txt", u.Query().Get("expires"), u.Query().Get("sig"))
	assert.ErrorIs(t, err, ErrBadSignature, "signature is bound to the key")

	l.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = l.Open(key, u.Query().Get("expires"), u.Query().Get("sig"))
	assert.ErrorIs(t, err, ErrBadSignature, "expired")

	require.NoError(t, l.Delete(ctx, key))
	require.NoError(t, l.Delete(ctx, key), "deleting twice is fine")
	_, err = l.SignedURL(ctx, key, "", time.Minute)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalRejectsTraversal(t *testing.T) {
	l, err := NewLocal(t.TempDir(), []byte("secret"), "")
	require.NoError(t, err)
	err = l.Put(context.Background(), "../escape.txt", strings.NewReader("x"), 1, "text/plain")
	assert.Error(t, err)
}

func TestLocalShortWrite(t *testing.T) {
	l, err := NewLocal(t.TempDir(), []byte("secret"), "")
	require.NoError(t, err)
	err = l.Put(context.Background(), "a/b.txt", strings.NewReader("abc"), 10, "text/plain")
	assert.Error(t, err)
}

func TestUnconfigured(t *testing.T) {
	var s ObjectStore = Unconfigured{}
	assert.ErrorIs(t, s.Put(context.Background(), "k", strings.NewReader(""), 0, ""), ErrNotConfigured)
	_, err := s.SignedURL(context.Background(), "k", "", time.Minute)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
