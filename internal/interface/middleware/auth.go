package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/devconnector/pkg/helpers"
	"github.com/oksasatya/devconnector/pkg/response"
)

// CtxUserIDKey is where the gate stores the verified subject id.
const CtxUserIDKey = "userID"

// Auth is the single authorization chokepoint: it extracts the bearer token,
// verifies it, and attaches the subject id to the request context. It does
// not check that the identity still exists; handlers that need the full
// record re-read it and treat "gone" as an invalid credential.
func Auth(jwt *helpers.JWTManager, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "No token, authorization denied")
			return
		}
		uid, err := jwt.Verify(token)
		if err != nil {
			// The cause (malformed/signature/expired) is worth logging but
			// never worth exposing.
			if logger != nil {
				logger.WithError(err).Debug("token rejected")
			}
			response.Error(c, http.StatusUnauthorized, "Token is not valid")
			return
		}
		c.Set(CtxUserIDKey, uid)
		c.Next()
	}
}

// bearerToken returns the credential from the Authorization header, or ""
// when the header is absent or not bearer-shaped.
func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
