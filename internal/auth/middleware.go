package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CtxClaimsKey is where the middleware stores the verified *Claims for
// downstream handlers.
const CtxClaimsKey = "albumclub_claims"

// AuthMiddleware verifies the bearer token and, when a repo is given,
// checks the token_version claim against the stored one so that logout
// and password changes invalidate tokens issued earlier.
func AuthMiddleware(tokens TokenService, repo *Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		if repo != nil {
			version, err := repo.GetTokenVersion(c.Request.Context(), claims.UserID)
			if err != nil || version != claims.TokenVersion {
				abortUnauthorized(c, "invalid token")
				return
			}
		}

		c.Set(CtxClaimsKey, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
	c.Abort()
}

// MustGetClaims returns the claims the middleware stored, or nil when
// the route ran without it.
func MustGetClaims(c *gin.Context) *Claims {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
