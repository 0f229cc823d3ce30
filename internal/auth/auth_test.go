package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"foozam/internal/kv"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-key-for-testing-only"

func ada() Session {
	return Session{UserID: "user-1", Email: "ada@example.com", DisplayName: "Ada", AvatarRef: "https://img/ada.png"}
}

func TestDecoder_VerifiedRoundTrip(t *testing.T) {
	token, err := GenerateToken(secret, ada(), time.Hour)
	require.NoError(t, err)

	s, err := NewDecoder(secret).Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, "ada@example.com", s.Email)
	assert.Equal(t, "Ada", s.DisplayName)
	assert.Equal(t, "https://img/ada.png", s.AvatarRef)
	assert.WithinDuration(t, time.Now().Add(time.Hour), s.ExpiresAt, time.Minute)
}

func TestDecoder_WrongSecret(t *testing.T) {
	token, err := GenerateToken("other", ada(), time.Hour)
	require.NoError(t, err)

	_, err = NewDecoder(secret).Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecoder_UnverifiedWithoutSecret(t *testing.T) {
	token, err := GenerateToken("whatever-the-idp-uses", ada(), time.Hour)
	require.NoError(t, err)

	s, err := NewDecoder("").Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", s.UserID)
}

func TestDecoder_Expired(t *testing.T) {
	token, err := GenerateToken(secret, ada(), time.Minute)
	require.NoError(t, err)

	for _, d := range []*Decoder{NewDecoder(secret), NewDecoder("")} {
		d.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		_, err := d.Decode(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	}
}

func TestDecoder_LegacyUserIDClaim(t *testing.T) {
	claims := jwt.MapClaims{
		"userID": "legacy-1",
		"email":  "old@example.com",
		"role":   "admin",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	s, err := NewDecoder(secret).Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "legacy-1", s.UserID)
	assert.Equal(t, "admin", s.Role)
}

func TestDecoder_Garbage(t *testing.T) {
	_, err := NewDecoder("").Decode("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = NewDecoder("").Decode("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	m := NewManager(store, NewDecoder(secret), "https://idp.example/login")

	s, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	token, err := GenerateToken(secret, ada(), time.Hour)
	require.NoError(t, err)
	s, err = m.Callback(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", s.UserID)

	s, err = m.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)

	got, _, err := m.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, got)

	require.NoError(t, m.Logout(ctx))
	require.NoError(t, m.Logout(ctx))
	_, ok, _ := store.Get(ctx, kv.KeyToken)
	assert.False(t, ok)
}

func TestManager_ExpiredTokenIsDiscardedOnLoad(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	token, err := GenerateToken(secret, ada(), time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, kv.KeyToken, token))

	d := NewDecoder(secret)
	d.now = func() time.Time { return time.Now().Add(time.Hour) }
	m := NewManager(store, d, "")

	s, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)
	_, ok, _ := store.Get(ctx, kv.KeyToken)
	assert.False(t, ok)
}

func TestManager_CallbackRejectsBadToken(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	m := NewManager(store, NewDecoder(secret), "")

	_, err := m.Callback(ctx, "nope")
	assert.Error(t, err)
	_, ok, _ := store.Get(ctx, kv.KeyToken)
	assert.False(t, ok)
}

func TestBuildLoginURL(t *testing.T) {
	assert.Equal(t, "https://idp.example/login", BuildLoginURL("https://idp.example/login", ""))
	assert.Equal(t,
		"https://idp.example/login?prompt=select&redirect_uri=http%3A%2F%2Flocalhost%3A8080%2Fauth%2Fcallback",
		BuildLoginURL("https://idp.example/login?prompt=select", "http://localhost:8080/auth/callback"))
}

func setupRouter(m *Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(func(*gin.Context) *Manager { return m }, "http://localhost:8080/")
	r.GET("/auth/login", h.Login())
	r.GET("/auth/callback", h.Callback())
	r.POST("/auth/logout", h.Logout())
	r.GET("/auth/me", h.Me())
	return r
}

func TestHandler_Flow(t *testing.T) {
	m := NewManager(kv.NewMemory(), NewDecoder(secret), "https://idp.example/login")
	r := setupRouter(m)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "https://idp.example/login?redirect_uri="))

	token, err := GenerateToken(secret, ada(), time.Hour)
	require.NoError(t, err)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/callback?token="+token, nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":true`)
	assert.Contains(t, w.Body.String(), `"email":"ada@example.com"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Contains(t, w.Body.String(), `"authenticated":false`)
}

func TestHandler_CallbackWithBadTokenSignsOut(t *testing.T) {
	store := kv.NewMemory()
	ctx := context.Background()
	token, err := GenerateToken(secret, ada(), time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, kv.KeyToken, token))

	r := setupRouter(NewManager(store, NewDecoder(secret), ""))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/callback?token=garbage", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	_, ok, _ := store.Get(ctx, kv.KeyToken)
	assert.False(t, ok)
}
