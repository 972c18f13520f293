package plinkbed

import (
	"io"

	"github.com/pkg/errors"
)

// ByteChunkReader iterates a fixed-size byte window over a seekable stream
// between an inclusive start and exclusive end offset (spec §4.4). It is
// the machinery behind the public ByteWindow API (spec §6).
type ByteChunkReader struct {
	src       io.ReadSeeker
	path      string
	cursor    int64
	end       int64
	chunkSize int
}

// NewByteChunkReader seeks src to start and returns an iterator over
// [start, end) in windows of chunkSize bytes, with one final shorter window
// if end-start is not a multiple of chunkSize.
func NewByteChunkReader(src io.ReadSeeker, path string, start, end int64, chunkSize int) (*ByteChunkReader, error) {
	if chunkSize <= 0 {
		return nil, invalidArg("chunk size must be > 0, got %d", chunkSize)
	}
	if end < start {
		return nil, invalidArg("end offset %d precedes start offset %d", end, start)
	}
	if _, err := src.Seek(start, io.SeekStart); err != nil {
		return nil, ioErr(path, "seek to start of byte window", err)
	}
	return &ByteChunkReader{src: src, path: path, cursor: start, end: end, chunkSize: chunkSize}, nil
}

// Next returns the next chunk, or (nil, false, nil) once the window is
// exhausted. It fails with an IOError if the stream ends before "end" is
// reached.
func (b *ByteChunkReader) Next() ([]byte, bool, error) {
	remaining := b.end - b.cursor
	if remaining <= 0 {
		return nil, false, nil
	}
	n := int64(b.chunkSize)
	if n > remaining {
		n = remaining
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(b.src, buf); err != nil {
		return nil, false, ioErr(b.path, "read byte window chunk", errors.WithStack(err))
	}
	b.cursor += n
	return buf, true, nil
}

// Close releases the underlying stream if it implements io.Closer. Callers
// that supplied their own open handle (rather than one from Reader.ByteWindow)
// may safely ignore the returned error and close it themselves instead.
func (b *ByteChunkReader) Close() error {
	if c, ok := b.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
