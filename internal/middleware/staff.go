package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// StaffIDKey is the context key for the acting staff member
	StaffIDKey = "staff_id"
	// StaffIDHeader is the HTTP header carrying the acting staff member's id
	StaffIDHeader = "X-Staff-ID"
)

// StaffIdentity stores the acting staff id from the X-Staff-ID header in the
// context and tags the request logger with it. Requests without the header
// act as the operator.
func StaffIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		staffID := strings.TrimSpace(c.GetHeader(StaffIDHeader))
		if staffID != "" {
			c.Set(StaffIDKey, staffID)
			if log := GetLogger(c); log != nil {
				c.Set(LoggerKey, log.With(map[string]interface{}{"staff_id": staffID}))
			}
		}
		c.Next()
	}
}

// GetStaffID retrieves the acting staff id from the Gin context.
// Returns an empty string for operator requests.
func GetStaffID(c *gin.Context) string {
	if staffID, exists := c.Get(StaffIDKey); exists {
		if id, ok := staffID.(string); ok {
			return id
		}
	}
	return ""
}
