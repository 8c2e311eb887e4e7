package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Router builds the gin engine with every route mounted. Cached audio is
// served straight off the cache directory so the URLs the service hands
// out resolve without a handler.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	api := r.Group("/api")
	{
		api.POST("/upload", s.handleUpload)
		api.POST("/generate", s.handleGenerate)
		api.POST("/parse", s.handleParse)
		api.POST("/tts", s.handleTTS)
		api.POST("/tts/batch", s.handleBatch)
		api.GET("/tts/stats", s.handleStats)
		api.POST("/cache/clean", s.handleCacheClean)
		api.GET("/sessions", s.handleSessionList)
		api.GET("/session/:id", s.handleSessionGet)
		api.DELETE("/session/:id", s.handleSessionDelete)
	}

	r.GET("/ws/progress", s.hub.Serve)
	r.Static("/cache", s.service.Cache().Dir())
	return r
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		}).Debug("request")
	}
}
