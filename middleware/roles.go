package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"course_market_backend/guard"
)

// RequireRoles runs the route guard for an API group. It must come after
// AuthMiddleware. A caller whose profile role is set but not in roles gets a
// 403 carrying the view they should be sent to instead.
func RequireRoles(g *guard.Guard, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		route := guard.Route{Prefix: c.FullPath(), RequireAuth: true, AllowedRoles: roles}
		d := g.Evaluate(c.Request.Context(), &guard.Session{UserID: userID}, route, c.Request.URL.Path)
		if !d.Allow {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":       "Insufficient role for this resource",
				"redirect_to": d.RedirectTo,
			})
			return
		}
		c.Next()
	}
}
