package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
	"github.com/turtacn/ComplianceSentinel/pkg/types/common"
)

// Recovery turns a handler panic into a 500 envelope and logs the stack.
func Recovery(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					logging.String("panic", fmt.Sprint(r)),
					logging.String("path", c.Request.URL.Path),
					logging.String("request_id", GetRequestID(c)),
					logging.String("stack", string(debug.Stack())),
				)
				resp := common.NewErrorResponse(string(errors.ErrCodeInternal), "internal server error")
				resp.RequestID = GetRequestID(c)
				c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
			}
		}()
		c.Next()
	}
}

//Personal.AI order the ending
