package socket

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"net"
)

const (
	headerSize = 14

	// maxFrameSize limits the payload of a single frame
	maxFrameSize = 16 << 20 // 16 MB
)

// writeFrame writes a frame to the connection with the format:
// - 2 bytes: namespace length (uint16, big endian)
// - 8 bytes: requestID (uint64, big endian)
// - 4 bytes: data length (uint32, big endian)
// - N bytes: namespace
// - M bytes: data payload
func writeFrame(conn net.Conn, namespace string, requestID uint64, data []byte) error {
	if len(namespace) > math.MaxUint16 {
		return fmt.Errorf("namespace too long (%d bytes)", len(namespace))
	}
	if len(data) > maxFrameSize {
		return fmt.Errorf("frame too large (%d bytes)", len(data))
	}

	header := make([]byte, headerSize+len(namespace))
	binary.BigEndian.PutUint16(header[:2], uint16(len(namespace)))
	binary.BigEndian.PutUint64(header[2:10], requestID)
	binary.BigEndian.PutUint32(header[10:14], uint32(len(data)))
	copy(header[headerSize:], namespace)

	b := net.Buffers{header, data}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads a frame from the connection using the provided buffer for
// the payload. If the buffer is too small a new one is allocated.
func readFrame(r io.Reader, buf []byte) (namespace string, requestID uint64, data []byte, err error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return "", 0, nil, err
	}

	nsLength := binary.BigEndian.Uint16(header[:2])
	requestID = binary.BigEndian.Uint64(header[2:10])
	contentLength := binary.BigEndian.Uint32(header[10:14])
	if contentLength > maxFrameSize {
		return "", 0, nil, fmt.Errorf("frame too large (%d bytes)", contentLength)
	}

	if nsLength > 0 {
		ns := make([]byte, nsLength)
		if _, err := io.ReadFull(r, ns); err != nil {
			return "", 0, nil, err
		}
		namespace = string(ns)
	}

	if contentLength == 0 {
		return namespace, requestID, []byte{}, nil
	}

	if len(buf) < int(contentLength) {
		buf = make([]byte, contentLength)
	}
	if _, err := io.ReadFull(r, buf[:contentLength]); err != nil {
		return "", 0, nil, err
	}
	return namespace, requestID, buf[:contentLength], nil
}
