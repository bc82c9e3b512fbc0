package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tgstorefront/internal/session"
	"tgstorefront/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEngine() *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(testutil.NewTestLogger()))

	verifier := session.NewVerifier([]byte("secret"), "tg-storefront")
	r.GET("/private", AuthMiddleware(verifier, testutil.NewTestLogger()), func(c *gin.Context) {
		claims, ok := SessionClaims(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": claims.User.ID()})
	})
	return r
}

func TestRequestLogger_RequestID(t *testing.T) {
	r := newTestEngine()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))
	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set(RequestIDHeader, "given-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "given-id", w.Header().Get(RequestIDHeader))
}

func TestAuthMiddleware(t *testing.T) {
	valid, err := session.Issue(testutil.NewTestUser(7, "seven"), "tg-storefront", []byte("secret"), time.Now())
	require.NoError(t, err)

	tests := []struct {
		name         string
		cookie       string
		expectedCode int
	}{
		{name: "no cookie", cookie: "", expectedCode: http.StatusUnauthorized},
		{name: "garbage cookie", cookie: "abc", expectedCode: http.StatusUnauthorized},
		{name: "valid session", cookie: valid, expectedCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: session.CookieName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()

			newTestEngine().ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK {
				assert.JSONEq(t, `{"id":7}`, w.Body.String())
			}
		})
	}
}
