package httpapi

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	appErrors "github.com/Ciriera/examboard-scheduler/pkg/errors"
	"github.com/Ciriera/examboard-scheduler/pkg/response"
)

// AuthGuard is a minimal bearer-token guard, adapted from the teacher's
// middleware.JWT but stripped of the login/user lookup it builds on — no
// user/session CRUD is carried into this service, only the token-validation
// mechanics protecting the /v1 routes (run submission, run polling, scoring).
type AuthGuard struct {
	secret []byte
}

// NewAuthGuard builds a guard that verifies HS256 tokens against secret.
func NewAuthGuard(secret string) *AuthGuard {
	return &AuthGuard{secret: []byte(secret)}
}

// Require rejects requests without a valid bearer token.
func (g *AuthGuard) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		if _, err := g.parse(parts[1]); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired token"))
			c.Abort()
			return
		}

		c.Next()
	}
}

func (g *AuthGuard) parse(raw string) (*jwt.Token, error) {
	return jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return g.secret, nil
	})
}
