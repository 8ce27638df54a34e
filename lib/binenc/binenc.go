package binenc

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// MaxFieldLen is the largest string or blob length a Reader accepts.
// Anything larger is treated as corrupt input.
const MaxFieldLen = 64 << 20

// ErrFieldTooLarge is returned when a length prefix exceeds MaxFieldLen.
var ErrFieldTooLarge = errors.New("binenc: field length exceeds limit")

// --------------------------------------------------------------------------
// Writer
// --------------------------------------------------------------------------

// Writer encodes primitive values to an io.Writer.
// The first error is sticky: all following writes are no-ops and Err returns it.
type Writer struct {
	w   io.Writer
	buf [binary.MaxVarintLen64]byte
	err error
}

// NewWriter creates a new Writer writing to w
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err returns the first error that occurred while writing
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) write(p []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(p)
}

// Byte writes a single byte
func (w *Writer) Byte(b byte) {
	w.buf[0] = b
	w.write(w.buf[:1])
}

// Bool writes a boolean as one byte (0 or 1)
func (w *Writer) Bool(v bool) {
	if v {
		w.Byte(1)
	} else {
		w.Byte(0)
	}
}

// Uvarint writes an unsigned varint
func (w *Writer) Uvarint(v uint64) {
	n := binary.PutUvarint(w.buf[:], v)
	w.write(w.buf[:n])
}

// Int32 writes a big endian int32
func (w *Writer) Int32(v int32) {
	binary.BigEndian.PutUint32(w.buf[:4], uint32(v))
	w.write(w.buf[:4])
}

// Time writes a timestamp as big endian unix nanoseconds
func (w *Writer) Time(t time.Time) {
	binary.BigEndian.PutUint64(w.buf[:8], uint64(t.UnixNano()))
	w.write(w.buf[:8])
}

// Str writes a length prefixed string
func (w *Writer) Str(s string) {
	w.Uvarint(uint64(len(s)))
	if w.err == nil && len(s) > 0 {
		_, w.err = io.WriteString(w.w, s)
	}
}

// Blob writes a length prefixed byte slice
func (w *Writer) Blob(b []byte) {
	w.Uvarint(uint64(len(b)))
	if len(b) > 0 {
		w.write(b)
	}
}

// OptStr writes a presence flag followed by the string if present
func (w *Writer) OptStr(s string, present bool) {
	w.Bool(present)
	if present {
		w.Str(s)
	}
}

// OptBlob writes a presence flag followed by the blob if b is not nil.
// A nil slice and an empty slice are encoded differently.
func (w *Writer) OptBlob(b []byte) {
	w.Bool(b != nil)
	if b != nil {
		w.Blob(b)
	}
}

// --------------------------------------------------------------------------
// Reader
// --------------------------------------------------------------------------

type byteReader interface {
	io.Reader
	io.ByteReader
}

// Reader decodes primitive values written by a Writer.
// Like the Writer it keeps the first error; decoded values are zero after an error.
type Reader struct {
	r   byteReader
	buf [8]byte
	err error
}

// NewReader creates a new Reader. If r does not implement io.ByteReader it is buffered.
func NewReader(r io.Reader) *Reader {
	br, ok := r.(byteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{r: br}
}

// Err returns the first error that occurred while reading.
// A premature end of input is reported as io.ErrUnexpectedEOF.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) fail(err error) {
	if r.err != nil {
		return
	}
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	r.err = err
}

func (r *Reader) read(p []byte) bool {
	if r.err != nil {
		return false
	}
	if _, err := io.ReadFull(r.r, p); err != nil {
		r.fail(err)
		return false
	}
	return true
}

// Byte reads a single byte
func (r *Reader) Byte() byte {
	if !r.read(r.buf[:1]) {
		return 0
	}
	return r.buf[0]
}

// Bool reads a boolean. Values other than 0 and 1 are rejected.
func (r *Reader) Bool() bool {
	switch b := r.Byte(); b {
	case 0:
		return false
	case 1:
		return true
	default:
		r.fail(fmt.Errorf("binenc: invalid boolean value %d", b))
		return false
	}
}

// Uvarint reads an unsigned varint
func (r *Reader) Uvarint() uint64 {
	if r.err != nil {
		return 0
	}
	v, err := binary.ReadUvarint(r.r)
	if err != nil {
		r.fail(err)
		return 0
	}
	return v
}

// Int32 reads a big endian int32
func (r *Reader) Int32() int32 {
	if !r.read(r.buf[:4]) {
		return 0
	}
	return int32(binary.BigEndian.Uint32(r.buf[:4]))
}

// Time reads a timestamp written by Writer.Time. The result is in UTC.
func (r *Reader) Time() time.Time {
	if !r.read(r.buf[:8]) {
		return time.Time{}
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(r.buf[:8]))).UTC()
}

func (r *Reader) length() int {
	n := r.Uvarint()
	if n > MaxFieldLen {
		r.fail(ErrFieldTooLarge)
		return 0
	}
	return int(n)
}

// Str reads a length prefixed string
func (r *Reader) Str() string {
	n := r.length()
	if r.err != nil || n == 0 {
		return ""
	}
	p := make([]byte, n)
	if !r.read(p) {
		return ""
	}
	return string(p)
}

// Blob reads a length prefixed byte slice. An empty blob is returned as a non nil empty slice.
func (r *Reader) Blob() []byte {
	n := r.length()
	if r.err != nil {
		return nil
	}
	p := make([]byte, n)
	if !r.read(p) {
		return nil
	}
	return p
}

// OptStr reads a value written by Writer.OptStr
func (r *Reader) OptStr() (string, bool) {
	if !r.Bool() {
		return "", false
	}
	s := r.Str()
	return s, r.err == nil
}

// OptBlob reads a value written by Writer.OptBlob. Absent blobs are returned as nil.
func (r *Reader) OptBlob() []byte {
	if !r.Bool() {
		return nil
	}
	return r.Blob()
}
