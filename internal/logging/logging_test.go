package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetup_WritesToFile(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	path := filepath.Join(t.TempDir(), "logs", "bingo.log")

	closer, err := Setup("debug", path)
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	log.Debug().Str("phase", "active").Msg("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	if !strings.Contains(string(data), `"phase":"active"`) || !strings.Contains(string(data), "hello") {
		t.Errorf("unexpected log content %q", data)
	}
}

func TestSetup_InvalidLevel(t *testing.T) {
	if _, err := Setup("loud", ""); err == nil {
		t.Error("expected error for unknown level")
	}
}
