package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hrdesk/internal/accounts"
	"hrdesk/internal/db/dbtest"
	"hrdesk/internal/models"
	"hrdesk/internal/seed"
)

const secret = "test-secret"

func init() { gin.SetMode(gin.TestMode) }

func setup(t *testing.T) (*gorm.DB, *models.Member) {
	t.Helper()
	gdb := dbtest.New(t)
	org, err := seed.FirstSetup(context.Background(), gdb, seed.Options{})
	require.NoError(t, err)
	m, err := accounts.Create(context.Background(), gdb, accounts.NewMember{
		OrgID: org.ID, Email: "alice@example.com", Name: "Alice", Password: "password1",
	})
	require.NoError(t, err)
	return gdb, m
}

func protected(gdb *gorm.DB) *gin.Engine {
	r := gin.New()
	r.GET("/me", JWT(gdb, secret), func(c *gin.Context) {
		cl := MustClaims(c)
		c.JSON(http.StatusOK, gin.H{"id": cl.MemberID, "who": cl.Initiator()})
	})
	return r
}

func TestIssueAndParse(t *testing.T) {
	m := &models.Member{ID: 7, Email: "a@b.c"}
	m.OrgID = 3
	tok, exp, err := Issue(secret, m, time.Now())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(TokenTTL), exp, time.Minute)

	cl, err := Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cl.MemberID)
	assert.Equal(t, int64(3), cl.OrgID)
	assert.Equal(t, "a@b.c", cl.Initiator())

	_, err = Parse("other", tok)
	assert.Error(t, err)

	old, _, err := Issue(secret, m, time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	_, err = Parse(secret, old)
	assert.Error(t, err)
}

func TestJWTMiddleware(t *testing.T) {
	gdb, m := setup(t)
	r := protected(gdb)
	tok, _, err := Issue(secret, m, time.Now())
	require.NoError(t, err)

	do := func(mod func(*http.Request)) int {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if mod != nil {
			mod(req)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, do(nil))
	assert.Equal(t, http.StatusUnauthorized, do(func(r *http.Request) { r.Header.Set("Authorization", "Bearer junk") }))
	assert.Equal(t, http.StatusOK, do(func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }))
	assert.Equal(t, http.StatusOK, do(func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: tok}) }))
	assert.Equal(t, http.StatusOK, do(func(r *http.Request) { r.URL.RawQuery = "access_token=" + tok }))

	require.NoError(t, gdb.Model(&models.Permission{}).Where("member_id = ?", m.ID).Update("status", models.MemberSuspended).Error)
	assert.Equal(t, http.StatusForbidden, do(func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }))

	require.NoError(t, gdb.Model(&models.Permission{}).Where("member_id = ?", m.ID).Update("status", models.MemberPending).Error)
	assert.Equal(t, http.StatusForbidden, do(func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }))

	require.NoError(t, gdb.Where("member_id = ?", m.ID).Delete(&models.Permission{}).Error)
	assert.Equal(t, http.StatusUnauthorized, do(func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }))
}

func TestDeviceMiddleware(t *testing.T) {
	gdb := dbtest.New(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	dev := models.Device{Name: "lobby", KeyHash: string(hash)}
	dev.OrgID = 1
	require.NoError(t, gdb.Create(&dev).Error)

	r := gin.New()
	r.POST("/punch", Device(gdb), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"name": DeviceFromContext(c).Name})
	})
	do := func(id, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/punch", nil)
		req.Header.Set(DeviceIDHeader, id)
		req.Header.Set(DeviceKeyHeader, key)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do("1", "s3cret")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"lobby"}`, w.Body.String())
	assert.Equal(t, http.StatusUnauthorized, do("1", "wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, do("99", "s3cret").Code)
	assert.Equal(t, http.StatusUnauthorized, do("abc", "s3cret").Code)
}

func TestNewSecret(t *testing.T) {
	a, err := NewSecret(16)
	require.NoError(t, err)
	b, err := NewSecret(16)
	require.NoError(t, err)
	assert.Len(t, a, 22)
	assert.NotEqual(t, a, b)
}
