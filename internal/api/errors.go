package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jds/internal/pg"
)

// Коды ошибок в ответах
const (
	ErrBadRequest = "bad_request"
	ErrNotFound   = "not_found"
	ErrNoDatabase = "no_database"
	ErrStorage    = "storage_error"
	ErrInternal   = "internal"
)

type apiError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Op      string   `json:"op,omitempty"`
	IDs     []string `json:"ids,omitempty"`
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": apiError{Code: code, Message: msg}})
}

// storageFailure раскрывает *pg.StorageError: операция и id идут в ответ.
func storageFailure(c *gin.Context, err error) {
	var se *pg.StorageError
	if errors.As(err, &se) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": apiError{
			Code: ErrStorage, Message: se.Err.Error(), Op: se.Op, IDs: se.IDs,
		}})
		return
	}
	abort(c, http.StatusInternalServerError, ErrInternal, err.Error())
}
