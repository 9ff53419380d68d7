package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"library-backend/internal/shared/config"
)

func TestLoadProfileMissingFile(t *testing.T) {
	p, err := LoadProfile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if p.Owner != "" || p.Index.URL != "" {
		t.Fatalf("expected empty profile, got %+v", p)
	}
}

func TestLoadProfileAndApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), ProfileFile)
	body := `owner: reader-7
index:
  url: http://indexer:8000/
  timeout_seconds: 30
storage:
  type: S3
  bucket: books
  region: eu-west-1
qa_cache:
  type: memory
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Owner != "reader-7" {
		t.Fatalf("owner = %q", p.Owner)
	}

	base := config.Config{
		IndexServiceURL: "http://localhost:8000",
		IndexTimeout:    2 * time.Minute,
		IndexRPS:        5,
		ObjectStoreType: "local",
		LocalStoreDir:   "./data",
		QACacheType:     "file",
		QACacheDir:      "./data/qa-cache",
	}
	got := p.Apply(base)
	if got.IndexServiceURL != "http://indexer:8000" {
		t.Fatalf("index url = %q", got.IndexServiceURL)
	}
	if got.IndexTimeout != 30*time.Second {
		t.Fatalf("timeout = %v", got.IndexTimeout)
	}
	if got.IndexRPS != 5 {
		t.Fatalf("rps should keep env value, got %v", got.IndexRPS)
	}
	if got.ObjectStoreType != "s3" || got.S3Bucket != "books" || got.AWSRegion != "eu-west-1" {
		t.Fatalf("storage not applied: %+v", got)
	}
	if got.LocalStoreDir != "./data" || got.QACacheDir != "./data/qa-cache" {
		t.Fatalf("unset fields should keep env values: %+v", got)
	}
	if got.QACacheType != "memory" {
		t.Fatalf("qa cache type = %q", got.QACacheType)
	}
}

func TestLoadProfileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ProfileFile)
	if err := os.WriteFile(path, []byte("owner: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProfile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
