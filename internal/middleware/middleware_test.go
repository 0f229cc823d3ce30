package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"foozam/internal/apperr"
	"foozam/internal/auth"
	"foozam/internal/backend"
	"foozam/internal/kv"
	"foozam/internal/logging"
	"foozam/internal/recognition"
	"foozam/internal/workspace"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-key-for-testing-only"

type nopRecognizer struct{}

func (nopRecognizer) Recognize(context.Context, recognition.Submission) recognition.Outcome {
	return &recognition.Failed{Reason: "unused"}
}
func (nopRecognizer) DishDetail(context.Context, string, string) (*recognition.Resolved, error) {
	return nil, errors.New("unused")
}
func (nopRecognizer) AddDish(context.Context, string, string) error { return nil }

func newRegistry() *workspace.Registry {
	return workspace.NewRegistry(workspace.Deps{
		Store:      kv.NewMemoryOpener(),
		Decoder:    auth.NewDecoder(secret),
		Recognizer: nopRecognizer{},
		Timeout:    time.Second,
	}, time.Hour)
}

func newRouter(reg *workspace.Registry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Visitor(reg, false), AuthMiddleware(auth.NewDecoder(secret)))
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"userID":    c.GetString("userID"),
			"userEmail": c.GetString("userEmail"),
		})
	})
	return r
}

func TestVisitor_IssuesCookieOnce(t *testing.T) {
	reg := newRegistry()
	r := newRouter(reg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, VisitorCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Result().Cookies())
	assert.Equal(t, 1, reg.Len())
}

func TestVisitor_ReplacesForgedCookie(t *testing.T) {
	r := newRouter(newRegistry())

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: VisitorCookie, Value: "../../etc"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Len(t, w.Result().Cookies(), 1)
	assert.NotEqual(t, "../../etc", w.Result().Cookies()[0].Value)
}

func TestAuthMiddleware_NoSession(t *testing.T) {
	r := newRouter(newRegistry())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userID":"","userEmail":""}`, w.Body.String())
}

func TestAuthMiddleware_InvalidBearerIsIgnored(t *testing.T) {
	r := newRouter(newRegistry())
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer invalid_token_xyz")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userID":"","userEmail":""}`, w.Body.String())
}

func TestAuthMiddleware_ValidBearer(t *testing.T) {
	token, err := auth.GenerateToken(secret, auth.Session{UserID: "test-user-id", Email: "test@example.com"}, time.Hour)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Visitor(newRegistry(), false), AuthMiddleware(auth.NewDecoder(secret)), RequireAuth())
	var forwarded string
	r.GET("/test", func(c *gin.Context) {
		// the token must reach the backend client
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			forwarded = r.Header.Get("Authorization")
		}))
		defer srv.Close()
		backend.New(srv.URL, time.Second).JSON(c.Request.Context(), http.MethodGet, "/ping", nil, nil, nil)
		c.JSON(http.StatusOK, gin.H{"userID": c.GetString("userID")})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userID":"test-user-id"}`, w.Body.String())
	assert.Equal(t, "Bearer "+token, forwarded)
}

func TestRequireAuth_Rejects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequireAuth())
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for role, want := range map[string]int{"": http.StatusForbidden, "user": http.StatusForbidden, "admin": http.StatusOK} {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			if role != "" {
				c.Set("userRole", role)
			}
		}, RequireRole("admin"))
		r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, want, w.Code, role)
	}
}

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/bad", func(c *gin.Context) { c.Error(apperr.BadRequest("dishName is required")) })
	r.GET("/boom", func(c *gin.Context) { c.Error(errors.New("db password leaked in message")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bad", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"dishName is required"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, w.Body.String())
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logging.Setup(&buf, "debug")
	defer logging.Setup(&bytes.Buffer{}, "info")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/test", func(c *gin.Context) {
		logging.From(c.Request.Context()).Info("inside")
		c.Status(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-Id", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-Id"))
	assert.Contains(t, buf.String(), `"http.req.id":"req-42"`)
	assert.Contains(t, buf.String(), `"message":"inside"`)
	assert.Contains(t, buf.String(), `"http.resp.status":418`)
}
