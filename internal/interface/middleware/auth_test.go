package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/devconnector/pkg/helpers"
)

func gateRouter(jwt *helpers.JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", Auth(jwt, nil), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxUserIDKey))
	})
	return r
}

func TestAuth_MissingCredential(t *testing.T) {
	t.Parallel()
	r := gateRouter(helpers.NewJWTManager("secret", time.Hour))

	for _, header := range []string{"", "Bearer", "Basic abc", "just-a-token"} {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
		require.Contains(t, w.Body.String(), "No token, authorization denied")
	}
}

func TestAuth_InvalidCredential(t *testing.T) {
	t.Parallel()
	jwt := helpers.NewJWTManager("secret", time.Hour)
	r := gateRouter(jwt)

	expired, _, err := helpers.NewJWTManager("secret", -time.Minute).Issue("u1")
	require.NoError(t, err)
	foreign, _, err := helpers.NewJWTManager("other", time.Hour).Issue("u1")
	require.NoError(t, err)

	for _, tok := range []string{"garbage", expired, foreign} {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Contains(t, w.Body.String(), "Token is not valid")
	}
}

func TestAuth_ValidTokenAttachesSubject(t *testing.T) {
	t.Parallel()
	jwt := helpers.NewJWTManager("secret", time.Hour)
	r := gateRouter(jwt)

	tok, _, err := jwt.Issue("user-7")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "user-7", w.Body.String())
}
