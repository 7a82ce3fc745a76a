package middleware

import (
	"context"
	"net/http"
	"strings"

	"uniform-studio/internal/services"
	"uniform-studio/internal/transport/httpdto"
	"uniform-studio/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TokenParser validates access tokens.
type TokenParser interface {
	ParseAccessToken(token string) (services.AccessClaims, error)
}

func AuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parser.ParseAccessToken(ExtractBearer(c))
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		schoolID, err := uuid.Parse(claims.SchoolID)
		if err != nil || claims.Email == "" {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		ctx := services.WithSchoolContext(c.Request.Context(), schoolID, claims.Email, claims.Name)
		ctx = context.WithValue(ctx, logger.SchoolIdKey, schoolID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ExtractBearer returns the bearer token from the Authorization header. Browsers
// can't set headers on WebSocket upgrades, so the token query parameter is accepted
// as well.
func ExtractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(c.Query("token"))
}
