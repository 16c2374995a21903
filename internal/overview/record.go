package overview

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Record — идентичность и версия одного экземпляра сущности.
// Version увеличивает внешний путь сохранения; физическое удаление — pg.Deleter.
type Record struct {
	EntityTypeID        int64     `json:"entityTypeId"`
	UUID                string    `json:"uuid"`
	UUIDLocation        string    `json:"uuidLocation"`
	UUIDLocationVersion int32     `json:"uuidLocationVersion"`
	ParentUUID          *string   `json:"parentUuid,omitempty"`
	ParentCompositeKey  *string   `json:"parentCompositeKey,omitempty"`
	Live                bool      `json:"live"`
	Version             int64     `json:"version"`
	LastEdit            time.Time `json:"lastEdit"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

func NewUUID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// New готовит запись для первого сохранения экземпляра.
func New(entityTypeID int64) *Record {
	return &Record{
		EntityTypeID: entityTypeID,
		UUID:         NewUUID(),
		Live:         true,
		LastEdit:     time.Now().UTC(),
	}
}

// CompositeKey = uuid[.location].locationVersion; всегда вычисляется заново.
func (r *Record) CompositeKey() string {
	return CompositeKey(r.UUID, r.UUIDLocation, r.UUIDLocationVersion)
}

func CompositeKey(uuid, location string, locationVersion int32) string {
	var b strings.Builder
	b.WriteString(uuid)
	if location != "" {
		b.WriteByte('.')
		b.WriteString(location)
	}
	b.WriteByte('.')
	b.WriteString(strconv.FormatInt(int64(locationVersion), 10))
	return b.String()
}

// SetParent связывает запись с родителем (uuid + его composite key).
func (r *Record) SetParent(parent *Record) {
	if parent == nil {
		r.ParentUUID, r.ParentCompositeKey = nil, nil
		return
	}
	uuid, key := parent.UUID, parent.CompositeKey()
	r.ParentUUID, r.ParentCompositeKey = &uuid, &key
}

func (r *Record) String() string {
	parent := ""
	if r.ParentCompositeKey != nil {
		parent = " parent=" + *r.ParentCompositeKey
	}
	return fmt.Sprintf("{entityTypeId=%d key=%s live=%t version=%d lastEdit=%s%s}",
		r.EntityTypeID, r.CompositeKey(), r.Live, r.Version,
		r.LastEdit.UTC().Format(time.RFC3339), parent)
}
