package session

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreatePersistsAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session", "token")

	first := LoadOrCreate(path, nil)
	if first == "" {
		t.Fatalf("expected a token")
	}

	second := LoadOrCreate(path, nil)
	if second != first {
		t.Fatalf("expected stable token, got %q then %q", first, second)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("token file not written: %v", err)
	}
	if string(data) != first+"\n" {
		t.Fatalf("unexpected token file contents %q", data)
	}
}

func TestLoadOrCreateReadsExistingToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("existing-token\n"), 0o600); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	if got := LoadOrCreate(path, nil); got != "existing-token" {
		t.Fatalf("expected existing token to win, got %q", got)
	}
}

func TestLoadOrCreateWithoutPathStillReturnsToken(t *testing.T) {
	first := LoadOrCreate("", nil)
	second := LoadOrCreate("", nil)
	if first == "" || second == "" {
		t.Fatalf("expected tokens even without persistence")
	}
	if first == second {
		t.Fatalf("expected distinct tokens when nothing is persisted")
	}
}
