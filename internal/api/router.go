// api/router.go
package api

import (
	"github.com/gin-gonic/gin"
)

func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	meta := r.Group("/api/meta")
	{
		meta.GET("/fields", s.FieldListHandler())
		meta.GET("/fields/:id", s.FieldHandler())
		meta.GET("/enums/:id", s.EnumHandler())
		meta.GET("/entities", s.EntityListHandler())
		meta.GET("/entities/:entity", s.EntityHandler())
		meta.GET("/ddl", s.DDLHandler())
		meta.GET("/lint", s.LintHandler())
	}

	// служебные маршруты записи
	r.POST("/api/overview/_bulk_delete", s.BulkDeleteHandler())
	r.POST("/api/dictionary/:entity/_flush", s.DictionaryFlushHandler())

	return r
}

func RunServer(addr string, s *Server) error {
	return NewRouter(s).Run(addr)
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.log.Debugw("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
		)
	}
}
