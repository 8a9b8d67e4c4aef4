package magsci

import (
	"bytes"
	"io"
)

// Stream caters for a generic reader type so that packet framing can work
// over a plain file, a network socket, or an in-memory byte buffer. All the
// framer needs is Read and Seek.
type Stream interface {
	io.Reader
	io.Seeker
}

// LoadStream reads size bytes from stream into memory when inmem is true,
// returning a *bytes.Reader over the buffered content; otherwise it hands
// the stream straight back for the caller to read incrementally.
func LoadStream(stream Stream, size int64, inmem bool) (Stream, error) {
	if !inmem {
		return stream, nil
	}

	buffer := make([]byte, size)
	if _, err := io.ReadFull(stream, buffer); err != nil {
		return nil, err
	}
	return bytes.NewReader(buffer), nil
}

// Tell reports the current byte offset of stream by seeking zero bytes
// relative to the current position.
func Tell(stream Stream) (int64, error) {
	return stream.Seek(0, io.SeekCurrent)
}
