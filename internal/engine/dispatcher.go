package engine

import "fmt"

// ErrUnknownOpcode is returned by Dispatch when the wire layer hands the
// engine an opcode outside the closed enum. Spec §4.6: this is the only
// case that bypasses the reply path entirely — the caller (host network
// layer) treats it as a fatal protocol violation and drops the connection.
type ErrUnknownOpcode struct{ Opcode Opcode }

func (e ErrUnknownOpcode) Error() string {
	return fmt.Sprintf("engine: unknown opcode %d", uint16(e.Opcode))
}

// Dispatch reads op and payload (the request buffer with its opcode prefix
// already stripped off by the wire layer) and routes to exactly one
// handler, which enqueues exactly one reply on sink. Unknown opcodes return
// ErrUnknownOpcode without enqueuing anything.
func (s *Server) Dispatch(op Opcode, payload []byte, sink ReplySink) error {
	if !op.IsValid() {
		return ErrUnknownOpcode{Opcode: op}
	}
	s.requests++

	switch op {
	case OpGet:
		s.handleGet(payload, sink)
	case OpSet:
		s.handleSet(payload, sink)
	case OpDel:
		s.handleDel(payload, sink)
	case OpTTL:
		s.handleTTL(payload, sink)
	case OpInc:
		s.handleIncDec(payload, sink, 1)
	case OpDec:
		s.handleIncDec(payload, sink, -1)
	case OpLock:
		s.handleLock(payload, sink)
	case OpUnlock:
		s.handleUnlock(payload, sink)
	case OpMeta:
		s.handleMeta(payload, sink)
	case OpKeys:
		s.handleKeys(payload, sink)
	case OpCount:
		s.handleCount(payload, sink)
	case OpStats:
		s.handleStats(sink)
	case OpPing:
		sink.EnqueueCode(OK, false)
	case OpEnd:
		sink.EnqueueCode(OK, true)
	case OpMGet:
		s.handleMGet(payload, sink)
	case OpMSet:
		s.handleMSet(payload, sink)
	case OpMDel:
		s.handleMDel(payload, sink)
	case OpMTTL:
		s.handleMTTL(payload, sink)
	case OpMInc:
		s.handleMIncDec(payload, sink, 1)
	case OpMDec:
		s.handleMIncDec(payload, sink, -1)
	case OpMLock:
		s.handleMLock(payload, sink)
	case OpMUnlock:
		s.handleMUnlock(payload, sink)
	}
	return nil
}
