package overview

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// FormatVersion — первый байт бинарного представления.
//
// Порядок полей после него фиксирован (wire-контракт, менять нельзя):
//
//	uuid, uuidLocation            string: uint32 BE длина + байты
//	uuidLocationVersion           int32 BE
//	parentUuid, parentCompositeKey  байт присутствия (0/1) + string
//	entityTypeId                  int64 BE
//	live                          байт 0/1
//	version                       int64 BE
//	lastEdit                      байт присутствия (0 = нулевое время) +
//	                              int64 BE Unix-секунды + int32 BE наносекунды, UTC
//
// Версия 1 хранила lastEdit одним int64 Unix-наносекунд; такие данные
// по-прежнему читаются.
const FormatVersion byte = 2

const formatV1 byte = 1

var ErrFormatVersion = errors.New("overview: unsupported binary format version")

// максимальная длина строки при чтении, защита от мусора во входе
const maxStringLen = 1 << 20

func (r *Record) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Record) UnmarshalBinary(data []byte) error {
	rd := bytes.NewReader(data)
	if err := r.Decode(rd); err != nil {
		return err
	}
	if rd.Len() != 0 {
		return fmt.Errorf("overview: %d trailing bytes", rd.Len())
	}
	return nil
}

// Encode пишет запись в w в фиксированном порядке полей.
func (r *Record) Encode(w io.Writer) error {
	e := encoder{w: w}
	e.putByte(FormatVersion)
	e.putString(r.UUID)
	e.putString(r.UUIDLocation)
	e.put(r.UUIDLocationVersion)
	e.putOptString(r.ParentUUID)
	e.putOptString(r.ParentCompositeKey)
	e.put(r.EntityTypeID)
	e.putBool(r.Live)
	e.put(r.Version)
	e.putTime(r.LastEdit)
	return e.err
}

// Decode читает запись, записанную Encode.
func (r *Record) Decode(rd io.Reader) error {
	d := decoder{r: rd}
	v := d.readByte()
	if d.err == nil && v != FormatVersion && v != formatV1 {
		return fmt.Errorf("%w: %d", ErrFormatVersion, v)
	}
	var out Record
	out.UUID = d.readString()
	out.UUIDLocation = d.readString()
	d.get(&out.UUIDLocationVersion)
	out.ParentUUID = d.readOptString()
	out.ParentCompositeKey = d.readOptString()
	d.get(&out.EntityTypeID)
	out.Live = d.readBool()
	d.get(&out.Version)
	if v == formatV1 {
		out.LastEdit = d.readUnixNano()
	} else {
		out.LastEdit = d.readTime()
	}
	if d.err != nil {
		return fmt.Errorf("overview: decode: %w", d.err)
	}
	*r = out
	return nil
}

type encoder struct {
	w   io.Writer
	err error
}

func (e *encoder) put(v any) {
	if e.err == nil {
		e.err = binary.Write(e.w, binary.BigEndian, v)
	}
}

func (e *encoder) putByte(b byte) { e.put(b) }

func (e *encoder) putBool(b bool) {
	if b {
		e.putByte(1)
	} else {
		e.putByte(0)
	}
}

func (e *encoder) putString(s string) {
	e.put(uint32(len(s)))
	if e.err == nil {
		_, e.err = io.WriteString(e.w, s)
	}
}

func (e *encoder) putTime(t time.Time) {
	if t.IsZero() {
		e.putByte(0)
		return
	}
	e.putByte(1)
	e.put(t.Unix())
	e.put(int32(t.Nanosecond()))
}

func (e *encoder) putOptString(s *string) {
	if s == nil {
		e.putByte(0)
		return
	}
	e.putByte(1)
	e.putString(*s)
}

type decoder struct {
	r   io.Reader
	err error
}

func (d *decoder) get(v any) {
	if d.err == nil {
		d.err = binary.Read(d.r, binary.BigEndian, v)
	}
}

func (d *decoder) readByte() byte {
	var b byte
	d.get(&b)
	return b
}

func (d *decoder) readBool() bool {
	switch b := d.readByte(); b {
	case 0:
		return false
	case 1:
		return true
	default:
		if d.err == nil {
			d.err = fmt.Errorf("invalid bool byte %d", b)
		}
		return false
	}
}

func (d *decoder) readString() string {
	var n uint32
	d.get(&n)
	if d.err != nil {
		return ""
	}
	if n > maxStringLen {
		d.err = fmt.Errorf("string length %d exceeds limit", n)
		return ""
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		d.err = err
		return ""
	}
	return string(buf)
}

func (d *decoder) readTime() time.Time {
	if !d.readBool() {
		return time.Time{}
	}
	var (
		sec   int64
		nanos int32
	)
	d.get(&sec)
	d.get(&nanos)
	if d.err != nil {
		return time.Time{}
	}
	if nanos < 0 || nanos >= 1e9 {
		d.err = fmt.Errorf("invalid nanoseconds %d", nanos)
		return time.Time{}
	}
	return time.Unix(sec, int64(nanos)).UTC()
}

// readUnixNano читает lastEdit формата 1: 0 означает нулевое время.
func (d *decoder) readUnixNano() time.Time {
	var nanos int64
	d.get(&nanos)
	if d.err != nil || nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos).UTC()
}

func (d *decoder) readOptString() *string {
	if d.readBool() {
		s := d.readString()
		return &s
	}
	return nil
}
