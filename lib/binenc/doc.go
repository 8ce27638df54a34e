// Package binenc implements the primitive encoding used by the persisted lock
// and property records: single bytes, booleans, unsigned varints, big endian
// int32 and timestamps, length prefixed strings and blobs, and optional values
// carrying a presence flag.
//
// Writer and Reader keep the first error that occurs, so a record can be
// encoded or decoded as a straight sequence of calls with a single error check
// at the end:
//
//	w := binenc.NewWriter(out)
//	w.Byte(0)
//	w.Str(path)
//	w.Uvarint(uint64(timeout))
//	if err := w.Err(); err != nil {
//	    // handle error
//	}
package binenc
