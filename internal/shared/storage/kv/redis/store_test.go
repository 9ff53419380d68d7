package redis

import (
	"context"
	"errors"
	"testing"

	goredis "github.com/redis/go-redis/v9"

	"library-backend/internal/shared/storage/kv"
)

func TestKeyPrefix(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	if got := New(client, "").key("qaHistory_1"); got != "library:qaHistory_1" {
		t.Fatalf("default prefix key = %q", got)
	}
	if got := New(client, "app:").key("qaHistory_1"); got != "app:qaHistory_1" {
		t.Fatalf("custom prefix key = %q", got)
	}
}

func TestInvalidKeyRejectedBeforeNetwork(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	s := New(client, "")

	if _, _, err := s.Get(context.Background(), "a/b"); !errors.Is(err, kv.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if err := s.Set(context.Background(), "", nil); !errors.Is(err, kv.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestConnectRequiresURL(t *testing.T) {
	if _, err := Connect(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty url")
	}
}
