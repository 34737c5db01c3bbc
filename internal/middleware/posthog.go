package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/manan0901/Vibecoder-sub000/internal/utils"
)

// untrackedPaths are never reported to PostHog.
var untrackedPaths = map[string]bool{
	"/health":            true,
	"/metrics":           true,
	"/webhooks/razorpay": true,
}

// PosthogMiddleware reports successful authenticated API calls as PostHog events named
// after the matched route, e.g. POST /api/v1/payments/orders -> "post_api_v1_payments_orders".
func PosthogMiddleware(posthogClient *utils.PosthogClientWrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !posthogClient.IsInitialized() || untrackedPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		c.Next()

		route := c.FullPath()
		if route == "" || len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		userID, ok := GetUserIDFromContext(c)
		if !ok {
			return
		}

		eventName := strings.ToLower(c.Request.Method) + "_" + strings.ReplaceAll(strings.TrimPrefix(route, "/"), "/", "_")
		eventName = strings.ReplaceAll(eventName, ":", "")

		props := map[string]any{
			"status_code": c.Writer.Status(),
			"role":        string(GetUserRoleFromContext(c)),
		}
		for _, p := range c.Params {
			props[p.Key] = p.Value
		}
		posthogClient.Enqueue(userID, eventName, props)
	}
}
