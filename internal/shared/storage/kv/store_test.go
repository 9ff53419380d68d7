package kv

import (
	"errors"
	"testing"
)

func TestValidateKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key     string
		wantErr bool
	}{
		{key: "qaHistory_123", wantErr: false},
		{key: "", wantErr: true},
		{key: "   ", wantErr: true},
		{key: "a/b", wantErr: true},
		{key: `a\b`, wantErr: true},
		{key: "..", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			err := ValidateKey(tt.key)
			if tt.wantErr && !errors.Is(err, ErrInvalidKey) {
				t.Fatalf("ValidateKey(%q) = %v, want ErrInvalidKey", tt.key, err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("ValidateKey(%q) unexpected error: %v", tt.key, err)
			}
		})
	}
}
