package middleware

import "github.com/gin-gonic/gin"

// ErrorBody is the JSON envelope of every error response.
func ErrorBody(message string) gin.H {
	return gin.H{"success": false, "error": message}
}

// Fail aborts the request with an error envelope.
func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorBody(message))
}
