package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	pkgAuth "f1-penca/pkg/auth"
	"f1-penca/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey  = "userID"
	ContextAdminIDKey = "adminID"
)

// SubjectChecker reports whether the id carried by a token still maps to a
// live account.
type SubjectChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// AuthRequired admits requests bearing a valid user token whose user still
// exists. Every failure answers the same 401 so callers learn nothing about
// which check failed.
func AuthRequired(users SubjectChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			unauthorized(c)
			return
		}

		claims, err := pkgAuth.ParseUserToken(token)
		if err != nil {
			unauthorized(c)
			return
		}
		if ok, err := users.Exists(c.Request.Context(), claims.SubjectID); err != nil || !ok {
			unauthorized(c)
			return
		}

		c.Set(ContextUserIDKey, claims.SubjectID)
		c.Next()
	}
}

func AdminAuthRequired(admins SubjectChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			unauthorized(c)
			return
		}

		claims, err := pkgAuth.ParseAdminToken(token)
		if err != nil {
			unauthorized(c)
			return
		}
		if ok, err := admins.Exists(c.Request.Context(), claims.SubjectID); err != nil || !ok {
			unauthorized(c)
			return
		}

		c.Set(ContextAdminIDKey, claims.SubjectID)
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	response.Abort(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
}

func extractBearerToken(authHeader string) (string, error) {
	if strings.TrimSpace(authHeader) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("empty bearer token")
	}
	return token, nil
}
