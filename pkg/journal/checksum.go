package journal

import (
	"errors"
	"io"

	"golang.org/x/crypto/blake2b"
)

// ErrTruncated is returned when a journal file ends before its
// declared record count is satisfied, or before a checksum footer is
// present at all.
var ErrTruncated = errors.New("journal: file truncated before record count or checksum footer")

// ErrChecksumMismatch is returned when a journal file's trailing
// blake2b-256 footer does not match its body.
var ErrChecksumMismatch = errors.New("journal: checksum footer does not match file body")

const checksumSize = 32

// checksumWriter hashes every byte written through it and appends a
// blake2b-256 footer on WriteFooter.
type checksumWriter struct {
	w   io.Writer
	acc []byte
}

func newChecksumWriter(w io.Writer) *checksumWriter {
	return &checksumWriter{w: w, acc: make([]byte, 0, 4096)}
}

func (c *checksumWriter) Write(p []byte) (int, error) {
	c.acc = append(c.acc, p...)
	return c.w.Write(p)
}

func (c *checksumWriter) WriteFooter() error {
	sum := blake2b.Sum256(c.acc)
	_, err := c.w.Write(sum[:])
	return err
}

// checksumReader mirrors checksumWriter on the read side: it buffers
// every byte read so VerifyFooter can recompute the digest once the
// caller has consumed the body and is ready to read the trailing
// footer bytes itself.
type checksumReader struct {
	r   io.Reader
	acc []byte
}

func newChecksumReader(r io.Reader) *checksumReader {
	return &checksumReader{r: r, acc: make([]byte, 0, 4096)}
}

func (c *checksumReader) Read(p []byte) (int, error) {
	n, err := io.ReadFull(c.r, p)
	c.acc = append(c.acc, p[:n]...)
	return n, err
}

func (c *checksumReader) VerifyFooter() error {
	var footer [checksumSize]byte
	if _, err := io.ReadFull(c.r, footer[:]); err != nil {
		return ErrTruncated
	}
	want := blake2b.Sum256(c.acc)
	if !equalDigest(want[:], footer[:]) {
		return ErrChecksumMismatch
	}
	return nil
}

func equalDigest(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}
