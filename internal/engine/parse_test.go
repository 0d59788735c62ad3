package engine

import (
	"bytes"
	"math"
	"testing"
)

func TestParseKeyOptionalValue(t *testing.T) {
	key, value, ok := parseKeyOptionalValue([]byte("foo bar baz"), true, 250, 1024)
	if !ok {
		t.Fatalf("expected ok")
	}
	if string(key) != "foo" {
		t.Fatalf("key = %q", key)
	}
	if string(value) != "bar baz" {
		t.Fatalf("value = %q", value)
	}
}

func TestParseKeyOptionalValueNoValue(t *testing.T) {
	key, value, ok := parseKeyOptionalValue([]byte("foo"), false, 250, 1024)
	if !ok || string(key) != "foo" || value != nil {
		t.Fatalf("got key=%q value=%q ok=%v", key, value, ok)
	}
}

func TestParseKeyOptionalValueRequiredMissing(t *testing.T) {
	if _, _, ok := parseKeyOptionalValue([]byte("foo"), true, 250, 1024); ok {
		t.Fatalf("expected failure when a required value is missing")
	}
}

func TestParseKeyOptionalValueEmptyKey(t *testing.T) {
	if _, _, ok := parseKeyOptionalValue([]byte(" bar"), false, 250, 1024); ok {
		t.Fatalf("expected failure on empty key")
	}
}

func TestParseKeyOptionalValueKeyTruncatedAtLimit(t *testing.T) {
	key, _, ok := parseKeyOptionalValue([]byte("abcdef"), false, 3, 1024)
	if !ok || string(key) != "abc" {
		t.Fatalf("got key=%q ok=%v", key, ok)
	}
}

func TestParseKeyOptionalValueValueClamped(t *testing.T) {
	_, value, ok := parseKeyOptionalValue([]byte("k 0123456789"), true, 250, 5)
	if !ok || string(value) != "01234" {
		t.Fatalf("got value=%q ok=%v", value, ok)
	}
}

func TestParseTTLKeyValue(t *testing.T) {
	ttl, key, value, ok := parseTTLKeyValue([]byte("60 mykey myvalue here"), 250, 1024)
	if !ok {
		t.Fatalf("expected ok")
	}
	if string(ttl) != "60" || string(key) != "mykey" || string(value) != "myvalue here" {
		t.Fatalf("got ttl=%q key=%q value=%q", ttl, key, value)
	}
}

func TestParseTTLKeyValueMissingValue(t *testing.T) {
	if _, _, _, ok := parseTTLKeyValue([]byte("60 mykey"), 250, 1024); ok {
		t.Fatalf("expected failure with no value span")
	}
}

func TestParseTTLKeyValueMissingSeparator(t *testing.T) {
	// A lone ttl span with no space separator after it (no key, no value)
	// must fail.
	if _, _, _, ok := parseTTLKeyValue([]byte("6"), 250, 1024); ok {
		t.Fatalf("expected failure with no key/value at all")
	}
}

func TestParseLongBasic(t *testing.T) {
	cases := map[string]int64{
		"0": 0, "1": 1, "-1": -1, "42": 42, "-42": -42,
	}
	for in, want := range cases {
		got, ok := parseLong([]byte(in))
		if !ok || got != want {
			t.Fatalf("parseLong(%q) = (%d, %v), want (%d, true)", in, got, ok, want)
		}
	}
}

func TestParseLongRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "-", "01", "1a", " 1", "1 ", "+1"} {
		if _, ok := parseLong([]byte(in)); ok {
			t.Fatalf("parseLong(%q) unexpectedly succeeded", in)
		}
	}
}

func TestParseLongOverflowSaturates(t *testing.T) {
	got, ok := parseLong([]byte("99999999999999999999"))
	if !ok || got != math.MaxInt64 {
		t.Fatalf("got (%d, %v), want (%d, true)", got, ok, int64(math.MaxInt64))
	}

	got, ok = parseLong([]byte("-99999999999999999999"))
	if !ok || got != math.MinInt64 {
		t.Fatalf("got (%d, %v), want (%d, true)", got, ok, int64(math.MinInt64))
	}
}

func TestIndexSpaceOrLimit(t *testing.T) {
	if got := indexSpaceOrLimit([]byte("abc def"), -1); got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
	if got := indexSpaceOrLimit([]byte("abcdef"), 4); got != 4 {
		t.Fatalf("got %d, want 4", got)
	}
	if got := indexSpaceOrLimit(bytes.Repeat([]byte("a"), 5), -1); got != 5 {
		t.Fatalf("got %d, want 5", got)
	}
}
