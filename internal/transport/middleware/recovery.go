package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Recovery turns a panic into a 500 and logs the stack.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		logrus.WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"panic":      err,
			"stacktrace": string(debug.Stack()),
		}).Error("Panic handling request")
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}
