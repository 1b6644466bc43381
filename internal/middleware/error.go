// File: internal/middleware/error.go
package middleware

import (
	"net/http"
	"strings"

	"garment_portal_gateway/internal/common"
	"garment_portal_gateway/internal/views"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler maps errors attached with c.Error to APIError JSON, and
// unmatched routes to a JSON 404 under /api or the not-found page elsewhere.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			ginErr := c.Errors.Last()
			apiErr := common.FromDomainError(ginErr.Err)
			if apiErr.StatusCode >= http.StatusInternalServerError {
				logger.Error("Unhandled application error",
					zap.Error(ginErr.Err),
					zap.String("path", c.Request.URL.Path),
					zap.Any("meta", ginErr.Meta),
					zap.String("request_id", c.GetString(common.RequestIDKey)),
				)
				if gin.Mode() != gin.DebugMode {
					apiErr = common.ErrInternalServer.WithDetails("An unexpected error occurred.")
				}
			}
			c.AbortWithStatusJSON(apiErr.StatusCode, apiErr)
			return
		}

		if c.Writer.Written() {
			return
		}
		switch c.Writer.Status() {
		case http.StatusNotFound:
			if strings.HasPrefix(c.Request.URL.Path, "/api/") {
				notFoundErr := common.ErrNotFound.WithDetails("The requested endpoint does not exist.")
				c.AbortWithStatusJSON(notFoundErr.StatusCode, notFoundErr)
				return
			}
			c.HTML(http.StatusNotFound, views.NotFound, gin.H{"Title": "Not found"})
			c.Abort()
		case http.StatusMethodNotAllowed:
			methodNotAllowedErr := common.NewAPIError(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "The method is not allowed for the requested URL.")
			c.AbortWithStatusJSON(methodNotAllowedErr.StatusCode, methodNotAllowedErr)
		}
	}
}
