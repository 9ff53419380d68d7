package config

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"
)

// loadEnvFiles loads KEY=VALUE pairs from the given files if they exist.
// Variables already present in the environment win.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("config: skip env file %s: %v", path, err)
		}
	}
}
