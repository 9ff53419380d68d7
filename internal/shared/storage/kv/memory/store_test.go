package memory

import (
	"context"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, found, err := s.Get(ctx, "k"); err != nil || found {
		t.Fatalf("expected missing key, found=%v err=%v", found, err)
	}

	val := []byte("v1")
	if err := s.Set(ctx, "k", val); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val[0] = 'x'

	got, found, err := s.Get(ctx, "k")
	if err != nil || !found || string(got) != "v1" {
		t.Fatalf("Get = %q found=%v err=%v", got, found, err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, _ := s.Get(ctx, "k"); found {
		t.Fatalf("expected key to be deleted")
	}
}
