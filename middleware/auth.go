package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/inkpost/inkpost/utils"
)

const (
	// ContextUserIDKey is the key used to store the authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"

	// TokenCookieName is the cookie carrying the session token.
	TokenCookieName = "token"
)

// AuthRequired ensures the request carries a valid session token, taken
// from the Authorization bearer header or the token cookie. Missing,
// malformed, and expired tokens are reported as distinct failures.
func AuthRequired(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, code, msg := extractToken(ctx)
		if tokenString == "" {
			utils.Error(ctx, http.StatusUnauthorized, code, msg)
			ctx.Abort()
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				utils.Error(ctx, http.StatusUnauthorized, 40104, "token expired")
			} else {
				utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			}
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Next()
	}
}

// extractToken looks in the Authorization header first, then the cookie.
// When absent it returns the failure code and message to report.
func extractToken(ctx *gin.Context) (token string, code int, msg string) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", 40102, "invalid authorization header format"
		}
		if s := strings.TrimSpace(parts[1]); s != "" {
			return s, 0, ""
		}
		return "", 40103, "empty bearer token"
	}

	if c, err := ctx.Cookie(TokenCookieName); err == nil {
		if s := strings.TrimSpace(c); s != "" {
			return s, 0, ""
		}
	}

	return "", 40101, "missing token"
}
