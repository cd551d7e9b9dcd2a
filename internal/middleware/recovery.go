package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/cleanteam/internal/logger"
)

type panicDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type panicResponse struct {
	Error panicDetail `json:"error"`
}

// Recovery turns a panic into a 500 response in the standard error envelope
// and logs it with the stack and the acting team and staff member.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			requestLogger := GetLogger(c)
			if requestLogger == nil {
				requestLogger = log
			}
			requestID := GetRequestID(c)

			requestLogger.Error("Panic recovered", fmt.Errorf("panic: %v", recovered), map[string]interface{}{
				"request_id": requestID,
				"method":     c.Request.Method,
				"route":      c.FullPath(),
				"team_id":    c.Param(TeamParam),
				"staff_id":   GetStaffID(c),
				"stack":      string(debug.Stack()),
			})

			c.AbortWithStatusJSON(http.StatusInternalServerError, panicResponse{
				Error: panicDetail{
					Code:      "INTERNAL_SERVER_ERROR",
					Message:   "An unexpected error occurred",
					RequestID: requestID,
				},
			})
		}()

		c.Next()
	}
}
