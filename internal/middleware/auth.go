package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wakana-code/station-navi-app/internal/auth"
	"github.com/wakana-code/station-navi-app/pkg/response"
)

// SubjectKey is the gin context key holding the authenticated subject.
const SubjectKey = "auth.subject"

// Auth requires a valid bearer token signed with secret.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			response.Unauthorized(c, "Missing bearer token")
			return
		}

		claims, err := auth.ParseToken(secret, token)
		if err != nil {
			_ = c.Error(err)
			response.Unauthorized(c, "Invalid bearer token")
			return
		}

		c.Set(SubjectKey, claims.Subject)
		c.Next()
	}
}
