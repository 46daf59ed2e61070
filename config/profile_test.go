package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soocke/linm-bot-go/assets"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "acct.ini")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadProfileComplete(t *testing.T) {
	path := writeProfile(t, strings.Replace(string(assets.ProfileINI), "TeamPosition = 0", "TeamPosition = 3", 1))
	p, err := LoadProfile(path, discardLogger)
	if err != nil {
		t.Fatalf("complete profile should load cleanly: %v", err)
	}
	if p.Slot != 3 || p.Role != "ELF" {
		t.Fatalf("common section: slot=%d role=%s", p.Slot, p.Role)
	}
	if p.Thresholds.Flee != 30 || p.Thresholds.Heal != 60 || p.Thresholds.MPProtect != 30 || p.Thresholds.TransferHP != 50 {
		t.Fatalf("thresholds=%+v", p.Thresholds)
	}
	if p.Hotkeys.ReturnHome != "8" || p.Hotkeys.MinorAttack != "4" {
		t.Fatalf("hotkeys=%+v", p.Hotkeys)
	}
}

func TestLoadProfileMissingKeysDefaulted(t *testing.T) {
	path := writeProfile(t, "[Common]\nRole = knight\n\n[Thresholds]\nHpBackHome = 45\nHpCure = abc\n")
	p, err := LoadProfile(path, discardLogger)
	if !errors.Is(err, ErrProfileIncomplete) {
		t.Fatalf("expected ErrProfileIncomplete, got %v", err)
	}
	if p.Role != "KNIGHT" || p.Thresholds.Flee != 45 {
		t.Fatalf("present keys must still apply: %+v", p)
	}
	d := DefaultProfile()
	if p.Thresholds.Heal != d.Thresholds.Heal {
		t.Fatalf("invalid HpCure should default, got %d", p.Thresholds.Heal)
	}
	if p.Hotkeys != d.Hotkeys {
		t.Fatalf("missing hotkeys should default: %+v", p.Hotkeys)
	}
	for _, want := range []string{"Common.TeamPosition missing", "Thresholds.HpCure invalid", "Hotkey.BackHomeKey missing"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q should mention %q", err, want)
		}
	}
	if strings.Contains(err.Error(), "CurePoison") {
		t.Fatalf("optional keys should not be reported: %v", err)
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	p, err := LoadProfile(filepath.Join(t.TempDir(), "none.ini"), discardLogger)
	if !errors.Is(err, ErrProfileIncomplete) {
		t.Fatalf("expected ErrProfileIncomplete, got %v", err)
	}
	if p != DefaultProfile() {
		t.Fatalf("missing file should yield defaults: %+v", p)
	}
}

func TestLoadProfileRejectsOutOfRange(t *testing.T) {
	body := strings.Replace(string(assets.ProfileINI), "HpCure = 60", "HpCure = 160", 1)
	p, err := LoadProfile(writeProfile(t, body), discardLogger)
	if !errors.Is(err, ErrProfileIncomplete) || p.Thresholds.Heal != 60 {
		t.Fatalf("out-of-range threshold: heal=%d err=%v", p.Thresholds.Heal, err)
	}
}
