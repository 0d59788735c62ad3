package wire

import (
	"bufio"
	"encoding/binary"
	"net"

	"github.com/exprkv/exprkv/internal/engine"
)

// Reply kinds tag the frame body so a reader can decode without also
// knowing which opcode produced it (spec §6.2's four reply shapes).
const (
	kindCode uint8 = iota
	kindValue
	kindKV
)

// Conn adapts a net.Conn into an engine.ReplySink: each Enqueue* call
// writes one framed reply immediately and requests a flush. Grounded on the
// source's WritePacket, which likewise writes header-then-body synchronously
// on every reply rather than batching (internal/adapter/tcp/protocol.go).
type Conn struct {
	nc  net.Conn
	buf *bufio.Writer

	closeAfterFlush bool
}

// NewConn wraps nc for use as an engine.ReplySink.
func NewConn(nc net.Conn) *Conn {
	return &Conn{nc: nc, buf: bufio.NewWriter(nc)}
}

// CloseRequested reports whether the last enqueued reply asked the host to
// close the connection after flushing (set only by END, spec §6.2).
func (c *Conn) CloseRequested() bool { return c.closeAfterFlush }

func (c *Conn) writeFrame(body []byte) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(body)))
	c.buf.Write(lenBuf[:])
	c.buf.Write(body)
	c.buf.Flush()
}

func (c *Conn) EnqueueCode(code engine.Code, closeAfterFlush bool) {
	c.closeAfterFlush = closeAfterFlush
	c.writeFrame([]byte{kindCode, uint8(code)})
}

func (c *Conn) EnqueueItem(item *engine.Item) {
	c.closeAfterFlush = false
	body := []byte{kindValue}
	body = appendItemPayload(body, item.Encoding(), item.Bytes(), item.Int())
	c.writeFrame(body)
}

func (c *Conn) EnqueueData(data []byte, num int64, encoding engine.Encoding) {
	c.closeAfterFlush = false
	body := []byte{kindValue}
	body = appendItemPayload(body, encoding, data, num)
	c.writeFrame(body)
}

func (c *Conn) EnqueueKV(keys [][]byte, values []*engine.Item) {
	c.closeAfterFlush = false
	body := []byte{kindKV}
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(keys)))
	body = append(body, countBuf[:]...)
	for i, k := range keys {
		var klenBuf [4]byte
		binary.LittleEndian.PutUint32(klenBuf[:], uint32(len(k)))
		body = append(body, klenBuf[:]...)
		body = append(body, k...)
		body = appendItemPayload(body, values[i].Encoding(), values[i].Bytes(), values[i].Int())
	}
	c.writeFrame(body)
}

// appendItemPayload appends [encoding(1)][num(8)][datalen(4)][data...] to
// dst. num is only meaningful when encoding == engine.Number; data is only
// meaningful otherwise.
func appendItemPayload(dst []byte, encoding engine.Encoding, data []byte, num int64) []byte {
	dst = append(dst, uint8(encoding))
	var numBuf [8]byte
	binary.LittleEndian.PutUint64(numBuf[:], uint64(num))
	dst = append(dst, numBuf[:]...)
	var dlenBuf [4]byte
	binary.LittleEndian.PutUint32(dlenBuf[:], uint32(len(data)))
	dst = append(dst, dlenBuf[:]...)
	dst = append(dst, data...)
	return dst
}
