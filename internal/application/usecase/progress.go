package usecase

import (
	"io"

	"cipherdrop/internal/domain/entity"
)

// ProgressFunc receives snapshots from a running task. It is called from the
// task goroutine and must not block.
type ProgressFunc func(entity.Progress)

// countingReader reports bytes read through it. It also seeks, so clients that
// rewind request bodies keep working; a rewind resets the count.
type countingReader struct {
	r      io.ReadSeeker
	n      int64
	report func(n int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.n += int64(n)
		c.report(c.n)
	}

	return n, err
}

func (c *countingReader) Seek(offset int64, whence int) (int64, error) {
	pos, err := c.r.Seek(offset, whence)
	if err == nil {
		c.n = pos
	}

	return pos, err
}
