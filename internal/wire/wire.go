// Package wire is the host I/O layer spec §1/§6 puts out of the engine's
// core scope: request framing, reply encoding, and flushing. It is grounded
// on a ReadPacket/WritePacket-style pair — a fixed binary header followed
// by a body — generalized from a single-key GET/SET/DEL shape to the full
// opcode/payload/reply grammar spec §6.1-§6.2 defines.
package wire

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/exprkv/exprkv/internal/engine"
)

// ErrFrameTooLarge is returned by ReadRequest when a client-declared frame
// length exceeds maxFrame, protecting the server from a malicious or
// corrupt length prefix forcing an unbounded read.
var ErrFrameTooLarge = errors.New("wire: frame exceeds maximum size")

// requestHeaderSize is the 4-byte little-endian frame length prefix
// preceding every request: [length][opcode(2)][payload...].
const requestHeaderSize = 4

// ReadRequest reads one length-prefixed frame from r and splits it into its
// opcode and payload, per spec §6.1 ("each request buffer begins with a
// little-endian 16-bit opcode, followed by an opaque payload").
func ReadRequest(r io.Reader, maxFrame int) (engine.Opcode, []byte, error) {
	var lenBuf [requestHeaderSize]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return 0, nil, err
	}
	frameLen := binary.LittleEndian.Uint32(lenBuf[:])
	if maxFrame > 0 && int(frameLen) > maxFrame {
		return 0, nil, ErrFrameTooLarge
	}
	if frameLen < 2 {
		return 0, nil, errors.New("wire: frame shorter than opcode prefix")
	}

	frame := make([]byte, frameLen)
	if _, err := io.ReadFull(r, frame); err != nil {
		return 0, nil, err
	}
	op := engine.Opcode(binary.LittleEndian.Uint16(frame[:2]))
	return op, frame[2:], nil
}

// WriteRequest frames a request the way ReadRequest expects it; used by
// test harnesses and any in-process client of the wire protocol.
func WriteRequest(w io.Writer, op engine.Opcode, payload []byte) error {
	frame := make([]byte, 2+len(payload))
	binary.LittleEndian.PutUint16(frame[:2], uint16(op))
	copy(frame[2:], payload)

	var lenBuf [requestHeaderSize]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(frame)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(frame)
	return err
}
