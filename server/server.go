package server

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"autograph-ds-builder/server/common"
	"autograph-ds-builder/server/handler"
)

type Config struct {
	Host      string
	Port      int
	DebugMode bool
}

type Server struct {
	engine *gin.Engine
	config *Config
}

func coffeeHandler(ctx *gin.Context) {
	ctx.String(http.StatusTeapot, "I'm a teapot")
}

/*
New 创建 HTTP 服务，调用前需要 handler.Init。
*/
func New(config *Config) *Server {
	if !config.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	eng := gin.New()
	eng.Use(gin.Recovery())
	eng.Use(common.LogRequest)
	eng.Use(cors.Default())

	eng.GET("/test/coffee", coffeeHandler)

	eng.POST("/link", handler.Link)

	runGroup := eng.Group("runs")
	{
		runGroup.GET("", handler.ListRun)
		runGroup.GET("/:id", handler.GetRunInfo)
	}

	return &Server{
		engine: eng,
		config: config,
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) RunServer() error {
	return s.engine.Run(fmt.Sprintf("%s:%d", s.config.Host, s.config.Port))
}
