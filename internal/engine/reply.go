package engine

// Code is a one-shot status reply (spec §6.2).
type Code uint8

const (
	OK Code = iota
	ErrGeneric
	ErrNotFound
	ErrNaN
	ErrMem
	ErrLocked
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case ErrGeneric:
		return "ERR"
	case ErrNotFound:
		return "ERR_NOT_FOUND"
	case ErrNaN:
		return "ERR_NAN"
	case ErrMem:
		return "ERR_MEM"
	case ErrLocked:
		return "ERR_LOCKED"
	default:
		return "ERR"
	}
}

// ReplySink is the client reply collaborator required by spec §6.4. The
// engine enqueues exactly one logical reply per handler invocation and
// never blocks on it; framing and flushing belong to the host I/O layer.
// Implementations must be idempotent with respect to engine state (calling
// them must not itself mutate the store).
type ReplySink interface {
	// EnqueueCode sends a one-shot status reply. closeAfterFlush is set
	// only by END, asking the host to close the connection once the reply
	// has been flushed.
	EnqueueCode(code Code, closeAfterFlush bool)
	// EnqueueItem sends a VAL reply carrying a single stored item.
	EnqueueItem(item *Item)
	// EnqueueData sends a VAL reply carrying inline bytes/int with an
	// explicit encoding, independent of any stored item (used for counts).
	EnqueueData(data []byte, num int64, encoding Encoding)
	// EnqueueKV sends a VAL reply enumerating N (key, value) pairs from two
	// aligned slices. Implementations must not retain the slices past the
	// call; the engine reclaims scratch keys/values immediately after.
	EnqueueKV(keys [][]byte, values []*Item)
}
