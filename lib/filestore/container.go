package filestore

import (
	"bufio"
	"errors"
	"fmt"
	"github.com/ValentinKolb/davlock/lib/binenc"
	"github.com/klauspost/compress/flate"
	"io"
	"math"
)

// Magic numbers identifying the kind of store in a container file
const (
	LockMagic     = "DAVL"
	PropertyMagic = "DAVP"
)

const containerVersion byte = 0

// ErrCorruptContainer is returned when a container file cannot be parsed
var ErrCorruptContainer = errors.New("filestore: corrupt container")

// record is a single entity written to a container
type record interface {
	EncodeTo(w *binenc.Writer)
}

// writeContainer writes the header and the compressed record stream:
//
//	magic (4 bytes) | version (1 byte) | deflate( int32 count | record* )
func writeContainer(w io.Writer, magic string, records []record) error {
	if len(records) > math.MaxInt32 {
		return fmt.Errorf("filestore: too many records (%d)", len(records))
	}

	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{containerVersion}); err != nil {
		return err
	}

	zw, err := flate.NewWriter(w, flate.DefaultCompression)
	if err != nil {
		return err
	}
	bw := binenc.NewWriter(zw)
	bw.Int32(int32(len(records)))
	for _, r := range records {
		r.EncodeTo(bw)
	}
	if err := bw.Err(); err != nil {
		return err
	}
	return zw.Close()
}

// readContainer validates the header and calls decode once per record
func readContainer(r io.Reader, magic string, decode func(r *binenc.Reader) error) error {
	header := make([]byte, len(magic)+1)
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("%w: reading header: %v", ErrCorruptContainer, err)
	}
	if string(header[:len(magic)]) != magic {
		return fmt.Errorf("%w: magic number mismatch (got %q, want %q)", ErrCorruptContainer, header[:len(magic)], magic)
	}
	if version := header[len(magic)]; version != containerVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorruptContainer, version)
	}

	zr := flate.NewReader(r)
	defer zr.Close()

	buf := bufio.NewReader(zr)
	br := binenc.NewReader(buf)
	count := br.Int32()
	if err := br.Err(); err != nil {
		return fmt.Errorf("%w: reading record count: %v", ErrCorruptContainer, err)
	}
	if count < 0 {
		return fmt.Errorf("%w: negative record count %d", ErrCorruptContainer, count)
	}

	for i := int32(0); i < count; i++ {
		if err := decode(br); err != nil {
			return fmt.Errorf("%w: record %d: %v", ErrCorruptContainer, i, err)
		}
	}

	// the stream must end right after the last record
	if _, err := buf.ReadByte(); err != io.EOF {
		if err == nil {
			return fmt.Errorf("%w: trailing data after %d records", ErrCorruptContainer, count)
		}
		return fmt.Errorf("%w: %v", ErrCorruptContainer, err)
	}
	return nil
}
