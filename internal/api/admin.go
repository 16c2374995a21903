package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jds/internal/schema"
)

type bulkDeleteReq struct {
	IDs []string `json:"ids"`
}

// BulkDeleteHandler удаляет экземпляры одной транзакцией: либо все, либо ни одного.
func (s *Server) BulkDeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.hasDB() {
			abort(c, http.StatusServiceUnavailable, ErrNoDatabase, "server is running without a database")
			return
		}
		var body bulkDeleteReq
		if err := c.ShouldBindJSON(&body); err != nil || len(body.IDs) == 0 {
			abort(c, http.StatusBadRequest, ErrBadRequest, "Invalid JSON: expected {ids:[]}")
			return
		}
		for _, id := range body.IDs {
			if strings.TrimSpace(id) == "" {
				abort(c, http.StatusBadRequest, ErrBadRequest, "empty id")
				return
			}
		}

		if err := s.Deleter.Delete(c.Request.Context(), body.IDs...); err != nil {
			s.log.Errorw("bulk delete failed", "count", len(body.IDs), "error", err)
			storageFailure(c, err)
			return
		}
		s.log.Infow("bulk delete", "count", len(body.IDs))
		c.JSON(http.StatusOK, gin.H{"deleted": len(body.IDs)})
	}
}

// DictionaryFlushHandler пишет привязки поле->свойство типа в таблицу словаря.
func (s *Server) DictionaryFlushHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.hasDB() {
			abort(c, http.StatusServiceUnavailable, ErrNoDatabase, "server is running without a database")
			return
		}
		e, ok := s.Catalog.Entity(c.Param("entity"))
		if !ok {
			abort(c, http.StatusNotFound, ErrNotFound, "Entity not found")
			return
		}
		if err := s.Catalog.Dictionary.Flush(c.Request.Context(), s.Dialect, s.DB, e.TypeID); err != nil {
			s.log.Errorw("dictionary flush failed", "entity", e.Name, "error", err)
			storageFailure(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"entity":   e.Name,
			"table":    schema.DictionaryTable,
			"bindings": len(s.Catalog.Dictionary.Pairs(e.TypeID)),
		})
	}
}
