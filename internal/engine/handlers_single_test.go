package engine

import "testing"

func TestHandleSetThenGet(t *testing.T) {
	s := newTestServer()
	sink := &mockSink{}

	s.handleSet([]byte("-1 mykey myvalue"), sink)
	if len(sink.items) != 1 || string(sink.items[0].Bytes()) != "myvalue" {
		t.Fatalf("unexpected SET reply: %+v", sink)
	}

	sink2 := &mockSink{}
	s.handleGet([]byte("mykey"), sink2)
	if len(sink2.items) != 1 || string(sink2.items[0].Bytes()) != "myvalue" {
		t.Fatalf("unexpected GET reply: %+v", sink2)
	}
}

func TestHandleGetMissing(t *testing.T) {
	s := newTestServer()
	sink := &mockSink{}
	s.handleGet([]byte("nope"), sink)
	if sink.lastCode() != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", sink.lastCode())
	}
}

func TestHandleSetRejectsLocked(t *testing.T) {
	s := newTestServer()
	s.handleSet([]byte("-1 k v1"), &mockSink{})
	s.handleLock([]byte("k -1"), &mockSink{})

	sink := &mockSink{}
	s.handleSet([]byte("-1 k v2"), sink)
	if sink.lastCode() != ErrLocked {
		t.Fatalf("got %v, want ErrLocked", sink.lastCode())
	}
}

func TestHandleSetMemPressureRejectsWrite(t *testing.T) {
	s := newTestServer()
	s.limits.MaxMemBytes = 1
	s.memused = 2

	sink := &mockSink{}
	s.handleSet([]byte("-1 k v"), sink)
	if sink.lastCode() != ErrMem {
		t.Fatalf("got %v, want ErrMem", sink.lastCode())
	}
}

func TestHandleDelRemovesKey(t *testing.T) {
	s := newTestServer()
	s.handleSet([]byte("-1 k v"), &mockSink{})

	sink := &mockSink{}
	s.handleDel([]byte("k"), sink)
	if sink.lastCode() != OK {
		t.Fatalf("got %v, want OK", sink.lastCode())
	}

	sink2 := &mockSink{}
	s.handleGet([]byte("k"), sink2)
	if sink2.lastCode() != ErrNotFound {
		t.Fatalf("expected key gone after DEL")
	}
}

func TestHandleDelLocked(t *testing.T) {
	s := newTestServer()
	s.handleSet([]byte("-1 k v"), &mockSink{})
	s.handleLock([]byte("k 100"), &mockSink{})

	sink := &mockSink{}
	s.handleDel([]byte("k"), sink)
	if sink.lastCode() != ErrLocked {
		t.Fatalf("got %v, want ErrLocked", sink.lastCode())
	}
}

func TestHandleDelLockedAndExpiredReportsLocked(t *testing.T) {
	s := newTestServer()
	s.handleSet([]byte("5 k v"), &mockSink{})
	s.handleLock([]byte("k 100"), &mockSink{})
	s.time += 6 // past the TTL, but still within the lock window

	sink := &mockSink{}
	s.handleDel([]byte("k"), sink)
	if sink.lastCode() != ErrLocked {
		t.Fatalf("got %v, want ErrLocked for a locked-and-expired key", sink.lastCode())
	}
}

func TestHandleLockMalformedSecsOnLockedKeyReportsNaN(t *testing.T) {
	s := newTestServer()
	s.handleSet([]byte("-1 k v"), &mockSink{})
	s.handleLock([]byte("k 100"), &mockSink{})

	sink := &mockSink{}
	s.handleLock([]byte("k notanumber"), sink)
	if sink.lastCode() != ErrNaN {
		t.Fatalf("got %v, want ErrNaN for a malformed secs argument on an already-locked key", sink.lastCode())
	}
}

func TestHandleIncDecCreatesOnMiss(t *testing.T) {
	s := newTestServer()
	sink := &mockSink{}
	s.handleIncDec([]byte("counter"), sink, 1)
	if len(sink.items) != 1 || sink.items[0].Int() != 1 || sink.items[0].Encoding() != Number {
		t.Fatalf("unexpected INC-on-miss reply: %+v", sink.items)
	}
}

func TestHandleIncDecPlainToNumberTransition(t *testing.T) {
	s := newTestServer()
	s.handleSet([]byte("-1 counter 10"), &mockSink{})

	sink := &mockSink{}
	s.handleIncDec([]byte("counter"), sink, 1)
	if sink.items[0].Encoding() != Number || sink.items[0].Int() != 11 {
		t.Fatalf("expected NUMBER(11), got %+v", sink.items[0])
	}
}

func TestHandleIncDecNonNumericIsNaN(t *testing.T) {
	s := newTestServer()
	s.handleSet([]byte("-1 counter abc"), &mockSink{})

	sink := &mockSink{}
	s.handleIncDec([]byte("counter"), sink, 1)
	if sink.lastCode() != ErrNaN {
		t.Fatalf("got %v, want ErrNaN", sink.lastCode())
	}
}

func TestHandleLockThenSecondLockFails(t *testing.T) {
	s := newTestServer()
	s.handleSet([]byte("-1 k v"), &mockSink{})

	sink := &mockSink{}
	s.handleLock([]byte("k 100"), sink)
	if sink.lastCode() != OK {
		t.Fatalf("first LOCK should succeed, got %v", sink.lastCode())
	}

	sink2 := &mockSink{}
	s.handleLock([]byte("k 100"), sink2)
	if sink2.lastCode() != ErrLocked {
		t.Fatalf("second LOCK should fail, got %v", sink2.lastCode())
	}
}

func TestHandleUnlockIgnoresLockState(t *testing.T) {
	s := newTestServer()
	s.handleSet([]byte("-1 k v"), &mockSink{})
	s.handleLock([]byte("k -1"), &mockSink{})

	sink := &mockSink{}
	s.handleUnlock([]byte("k"), sink)
	if sink.lastCode() != OK {
		t.Fatalf("UNLOCK should always succeed on a valid key, got %v", sink.lastCode())
	}

	sink2 := &mockSink{}
	s.handleDel([]byte("k"), sink2)
	if sink2.lastCode() != OK {
		t.Fatalf("expected DEL to succeed after UNLOCK, got %v", sink2.lastCode())
	}
}

func TestHandleMetaFields(t *testing.T) {
	s := newTestServer()
	s.handleSet([]byte("100 k v"), &mockSink{})

	sink := &mockSink{}
	s.handleMeta([]byte("k enc"), sink) // prefix match against "encoding"
	if !sink.hasData || sink.dataNum != int64(Plain) {
		t.Fatalf("expected encoding=PLAIN, got %+v", sink)
	}
}

func TestHandleMetaAmbiguousPrefixResolvesFirstMatch(t *testing.T) {
	s := newTestServer()
	s.handleSet([]byte("100 k v"), &mockSink{})

	sink := &mockSink{}
	s.handleMeta([]byte("k l"), sink) // "l" prefixes both "left" and "lock"; "left" comes first
	if !sink.hasData || sink.dataNum != 100 {
		t.Fatalf("expected left=100 (first match wins over lock), got %+v", sink)
	}
}

func TestHandleMetaUnknownField(t *testing.T) {
	s := newTestServer()
	s.handleSet([]byte("-1 k v"), &mockSink{})

	sink := &mockSink{}
	s.handleMeta([]byte("k bogus"), sink)
	if sink.lastCode() != ErrGeneric {
		t.Fatalf("got %v, want ErrGeneric", sink.lastCode())
	}
}

func TestHandleKeysReturnsPrefixMatches(t *testing.T) {
	s := newTestServer()
	s.handleSet([]byte("-1 user:1 a"), &mockSink{})
	s.handleSet([]byte("-1 user:2 b"), &mockSink{})
	s.handleSet([]byte("-1 group:1 c"), &mockSink{})

	sink := &mockSink{}
	s.handleKeys([]byte("user:"), sink)
	if len(sink.kvValues) != 2 {
		t.Fatalf("got %d matches, want 2", len(sink.kvValues))
	}
}

func TestHandleKeysNoMatch(t *testing.T) {
	s := newTestServer()
	sink := &mockSink{}
	s.handleKeys([]byte("nope"), sink)
	if sink.lastCode() != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", sink.lastCode())
	}
}

func TestHandleCountAlwaysRepliesVal(t *testing.T) {
	s := newTestServer()
	sink := &mockSink{}
	s.handleCount([]byte("nothing-matches"), sink)
	if !sink.hasData || sink.dataNum != 0 {
		t.Fatalf("COUNT with zero matches should still reply VAL(0), got %+v", sink)
	}

	s.handleSet([]byte("-1 a 1"), &mockSink{})
	s.handleSet([]byte("-1 ab 1"), &mockSink{})

	sink2 := &mockSink{}
	s.handleCount([]byte("a"), sink2)
	if sink2.dataNum != 2 {
		t.Fatalf("got count=%d, want 2", sink2.dataNum)
	}
}
