package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"library-backend/internal/shared/config"
)

// ProfileFile is the profile name looked up in the home directory.
const ProfileFile = ".bookbot.yaml"

// Profile holds per-user CLI settings. Set fields override the environment.
type Profile struct {
	Owner string `yaml:"owner"`
	Email string `yaml:"email"`

	Index struct {
		URL            string  `yaml:"url"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		RPS            float64 `yaml:"rps"`
	} `yaml:"index"`

	Storage struct {
		Type     string `yaml:"type"`
		LocalDir string `yaml:"local_dir"`
		Bucket   string `yaml:"bucket"`
		Prefix   string `yaml:"prefix"`
		Region   string `yaml:"region"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"storage"`

	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`

	QACache struct {
		Type string `yaml:"type"`
		Dir  string `yaml:"dir"`
	} `yaml:"qa_cache"`
}

// DefaultProfilePath returns ~/.bookbot.yaml, or "" when the home directory is unknown.
func DefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ProfileFile)
}

// LoadProfile reads the profile at path. A missing file yields an empty profile.
func LoadProfile(path string) (Profile, error) {
	var p Profile
	if strings.TrimSpace(path) == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return p, nil
}

// Apply returns cfg with every non-empty profile field copied over it.
func (p Profile) Apply(cfg config.Config) config.Config {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&cfg.IndexServiceURL, strings.TrimRight(p.Index.URL, "/"))
	if p.Index.TimeoutSeconds > 0 {
		cfg.IndexTimeout = time.Duration(p.Index.TimeoutSeconds) * time.Second
	}
	if p.Index.RPS > 0 {
		cfg.IndexRPS = p.Index.RPS
	}
	set(&cfg.ObjectStoreType, strings.ToLower(p.Storage.Type))
	set(&cfg.LocalStoreDir, p.Storage.LocalDir)
	set(&cfg.S3Bucket, p.Storage.Bucket)
	set(&cfg.S3Prefix, p.Storage.Prefix)
	set(&cfg.AWSRegion, p.Storage.Region)
	set(&cfg.S3Endpoint, p.Storage.Endpoint)
	set(&cfg.DatabaseURL, p.Database.URL)
	set(&cfg.QACacheType, strings.ToLower(p.QACache.Type))
	set(&cfg.QACacheDir, p.QACache.Dir)
	return cfg
}
