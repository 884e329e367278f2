// Package journal persists engine.OrderMessage history to disk in a
// flat binary layout, and adds a durable key-value mirror on top of
// BadgerDB via github.com/luxfi/database for callers that want to look
// up individual records by sequence number rather than read the whole
// file.
package journal

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/luxfi/lob-matcher/pkg/engine"
)

const recordSize = engine.WireSize

// BinaryCodec reads and writes the count-prefixed flat array format:
// an 8-byte little-endian record count followed by that many
// fixed-width records, each encoded with engine.Encode so a journal
// file and a captured ZeroMQ frame (pkg/transport/zmqfeed) use
// byte-identical record layouts. A checksum footer (checksum.go) is
// appended after the records.
type BinaryCodec struct{}

// Write encodes messages to w as count + records + checksum footer.
func (BinaryCodec) Write(w io.Writer, messages []engine.OrderMessage) error {
	bw := bufio.NewWriter(w)
	sum := newChecksumWriter(bw)

	var countBuf [8]byte
	binary.LittleEndian.PutUint64(countBuf[:], uint64(len(messages)))
	if _, err := sum.Write(countBuf[:]); err != nil {
		return err
	}

	var rec [recordSize]byte
	for _, m := range messages {
		engine.Encode(rec[:], m)
		if _, err := sum.Write(rec[:]); err != nil {
			return err
		}
	}

	if err := sum.WriteFooter(); err != nil {
		return err
	}
	return bw.Flush()
}

// Read decodes messages from r, verifying the checksum footer. It
// returns ErrTruncated if the file ends mid-record or the footer is
// missing, and ErrChecksumMismatch if the footer does not match. Read
// never returns a partial slice, only nil-or-complete.
func (BinaryCodec) Read(r io.Reader) ([]engine.OrderMessage, error) {
	br := bufio.NewReader(r)
	sum := newChecksumReader(br)

	var countBuf [8]byte
	if _, err := io.ReadFull(sum, countBuf[:]); err != nil {
		return nil, ErrTruncated
	}
	count := binary.LittleEndian.Uint64(countBuf[:])

	messages := make([]engine.OrderMessage, 0, count)
	var rec [recordSize]byte
	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(sum, rec[:]); err != nil {
			return nil, ErrTruncated
		}
		messages = append(messages, engine.Decode(rec[:]))
	}

	if err := sum.VerifyFooter(); err != nil {
		return nil, err
	}
	return messages, nil
}

// WriteFile is a convenience wrapper around Write for a path on disk.
func (c BinaryCodec) WriteFile(path string, messages []engine.OrderMessage) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.Write(f, messages)
}

// ReadFile is a convenience wrapper around Read for a path on disk. On
// ErrTruncated or ErrChecksumMismatch it removes the file, since a
// journal that fails to verify should not be replayed from again.
func (c BinaryCodec) ReadFile(path string) ([]engine.OrderMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	messages, err := c.Read(f)
	f.Close()
	if err == ErrTruncated || err == ErrChecksumMismatch {
		os.Remove(path)
	}
	return messages, err
}
