package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"photo-versions-backend/internal/config"
	"photo-versions-backend/internal/models"
)

// UserIDKey holds the verified caller id in the gin context.
const UserIDKey = "user_id"

// AuthMiddleware validates an HS256 bearer token and stores its "sub" claim
// under UserIDKey. Handlers never see unverified identities.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, msg := bearerToken(c.GetHeader("Authorization"))
		if msg != "" {
			unauthorized(c, msg)
			return
		}

		// Some clients URL-encode the token when copying it from a query string.
		if decoded, err := url.QueryUnescape(tokenString); err == nil {
			tokenString = decoded
		}
		if strings.Count(tokenString, ".") != 2 {
			unauthorized(c, "token must have 3 parts separated by dots")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			if cfg.JWTSecret == "" {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWTSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			unauthorized(c, tokenErrorMessage(err))
			return
		}
		if !token.Valid {
			unauthorized(c, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauthorized(c, "invalid token claims")
			return
		}
		sub, ok := claims["sub"].(string)
		if !ok || strings.TrimSpace(sub) == "" {
			unauthorized(c, "missing user id in token")
			return
		}

		c.Set(UserIDKey, sub)
		c.Next()
	}
}

// CallerID returns the verified caller id, or "" outside AuthMiddleware.
func CallerID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "missing authorization header"
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "invalid authorization header format"
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token has expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return "token signature is invalid"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "token is malformed"
	default:
		return "invalid token"
	}
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "unauthorized",
		Message: message,
		Code:    "unauthenticated",
	})
}
