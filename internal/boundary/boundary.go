// Package boundary contains faults raised while a handler renders a page.
package boundary

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"garment_portal_gateway/internal/common"
	"garment_portal_gateway/internal/views"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Fault is a recovered panic.
type Fault struct {
	Value interface{}
	Stack []byte
}

func (f *Fault) Error() string {
	return fmt.Sprintf("recovered fault: %v", f.Value)
}

// Supervise runs fn and turns a panic into a *Fault.
func Supervise(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Fault{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// Recovery replaces the response of a panicking handler with the generic
// recovery view, or a 500 APIError for API routes. Fault kinds are not
// distinguished.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("FaultBoundary")
	return func(c *gin.Context) {
		err := Supervise(func() error {
			c.Next()
			return nil
		})
		var fault *Fault
		if !errors.As(err, &fault) {
			return
		}

		log.Error("Handler fault recovered",
			zap.String("path", c.Request.URL.Path),
			zap.Any("fault", fault.Value),
			zap.ByteString("stack", fault.Stack),
		)

		if c.Writer.Written() {
			c.Abort()
			return
		}
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			common.RespondWithError(c, common.ErrInternalServer)
			c.Abort()
			return
		}
		c.HTML(http.StatusInternalServerError, views.Recovery, gin.H{"Title": "Something went wrong"})
		c.Abort()
	}
}
