package engine

// mockSink is a recording ReplySink for handler tests: plain struct fields,
// no assertion library, matching the plain testing.T style used elsewhere.
type mockSink struct {
	codes []Code
	closed bool

	items []*Item

	dataBytes []byte
	dataNum   int64
	dataEnc   Encoding
	hasData   bool

	kvKeys   [][]byte
	kvValues []*Item
}

func (m *mockSink) EnqueueCode(code Code, closeAfterFlush bool) {
	m.codes = append(m.codes, code)
	if closeAfterFlush {
		m.closed = true
	}
}

func (m *mockSink) EnqueueItem(item *Item) {
	m.items = append(m.items, item)
}

func (m *mockSink) EnqueueData(data []byte, num int64, encoding Encoding) {
	m.dataBytes = data
	m.dataNum = num
	m.dataEnc = encoding
	m.hasData = true
}

// EnqueueKV snapshots each item's encoding/bytes/num at call time, matching
// the real ReplySink contract of consuming an item synchronously before
// returning (a caller may destroy the item right after enqueuing it, as
// STATS does with its volatile values).
func (m *mockSink) EnqueueKV(keys [][]byte, values []*Item) {
	m.kvKeys = append([][]byte(nil), keys...)
	snapshots := make([]*Item, len(values))
	for i, it := range values {
		snapshots[i] = &Item{encoding: it.encoding, data: append([]byte(nil), it.data...), num: it.num, size: it.size}
	}
	m.kvValues = snapshots
}

func (m *mockSink) lastCode() Code {
	if len(m.codes) == 0 {
		return Code(255)
	}
	return m.codes[len(m.codes)-1]
}

func newTestServer() *Server {
	return NewServer(Limits{
		MaxKeySize:     64,
		MaxValueSize:   1024,
		MaxItemTTL:     0,
		MaxMemBytes:    0,
		ComprThreshold: 16,
	}, 1000)
}
