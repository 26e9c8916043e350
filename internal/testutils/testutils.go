package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/nfrund/organizapp/internal/config"
	"github.com/nfrund/organizapp/internal/logging"
)

// ConfigForTests loads the .env.test file and returns a valid config.Provider.
// Overrides are applied after the file, so a test can swap single keys.
func ConfigForTests(t *testing.T, overrides map[string]string) config.Provider {
	t.Helper()

	// Find project root by looking for go.mod to reliably locate .env.test
	path, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(path, "go.mod")); err == nil {
			break
		}
		if path == filepath.Dir(path) {
			t.Fatalf("could not find project root with go.mod")
		}
		path = filepath.Dir(path)
	}

	env, err := godotenv.Read(filepath.Join(path, ".env.test"))
	if err != nil {
		t.Fatalf("failed to load .env.test file: %v", err)
	}
	for key, value := range overrides {
		env[key] = value
	}

	// t.Setenv restores the previous values when the test ends.
	for key, value := range env {
		t.Setenv(key, value)
	}

	logging.New()

	cfg, err := config.FromEnv()
	if err != nil {
		t.Fatalf("invalid test configuration: %v", err)
	}
	return cfg
}
