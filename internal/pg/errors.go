package pg

import (
	"fmt"
	"strings"
)

// StorageError — любая ошибка БД при DDL или пакетном удалении. Коммита не было.
type StorageError struct {
	Op  string
	IDs []string // id, которые пытались удалить
	Err error
}

func (e *StorageError) Error() string {
	if len(e.IDs) == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, strings.Join(e.IDs, ", "), e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
