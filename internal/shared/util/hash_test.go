package util

import "testing"

func TestHashUserKey(t *testing.T) {
	id := "reader-42"
	got := HashUserKey(id)
	if got != HashUserKey(id) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
	if HashUserKey("reader-43") == got {
		t.Fatalf("different owners must not share a key")
	}
}

func TestContentDigest(t *testing.T) {
	// sha256("abc")
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := ContentDigest([]byte("abc")); got != want {
		t.Fatalf("ContentDigest = %s", got)
	}
}
