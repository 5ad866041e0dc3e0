package common

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"autograph-ds-builder/logging"
)

/*
LogRequest 记录每个请求的方法、路径、状态码和耗时。
*/
func LogRequest(ctx *gin.Context) {
	start := time.Now()
	ctx.Next()

	logging.Default().WithFields(logrus.Fields{
		"method":  ctx.Request.Method,
		"path":    ctx.Request.URL.Path,
		"status":  ctx.Writer.Status(),
		"latency": time.Since(start).String(),
		"client":  ctx.ClientIP(),
	}).Info("request")
}
