package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/services"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	userIDKey    = "user_id"
	requestIDKey = "request_id"

	userIDHeader    = "X-User-ID"
	requestIDHeader = "X-Request-ID"
)

// TokenParser validates a bearer token and returns its claims.
// *casdoorsdk.Client satisfies it.
type TokenParser interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// RequestIDMiddleware propagates X-Request-ID, generating one when the caller
// did not send it, and stores it where service logs pick it up.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), services.RequestIDKey, requestID))
		c.Next()
	}
}

// IdentityMiddleware resolves the calling user. A bearer token is verified
// with the token parser when one is configured; otherwise the gateway-set
// X-User-ID header is trusted.
func IdentityMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok && parser != nil {
			claims, err := parser.ParseJwtToken(token)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
					Message: "Invalid access token",
					Details: err.Error(),
				})
				return
			}
			userID := claims.User.Id
			if userID == "" {
				userID = claims.RegisteredClaims.Subject
			}
			if userID != "" {
				c.Set(userIDKey, userID)
				c.Next()
				return
			}
		}

		if userID := strings.TrimSpace(c.GetHeader(userIDHeader)); userID != "" {
			c.Set(userIDKey, userID)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
