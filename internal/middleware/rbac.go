package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/research-match-api/internal/models"
	appErrors "github.com/noah-isme/research-match-api/pkg/errors"
	"github.com/noah-isme/research-match-api/pkg/response"
)

// RequireRoles admits only authenticated users holding one of roles. It
// must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
		names = append(names, string(r))
	}
	denied := appErrors.Clone(appErrors.ErrForbidden, "Access restricted to "+strings.Join(names, ", ")+" accounts")

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.Abort(c, appErrors.Clone(appErrors.ErrUnauthorized, "Authentication required"))
			return
		}
		if _, ok := allowed[user.Role]; !ok {
			response.Abort(c, denied)
			return
		}
		c.Next()
	}
}
