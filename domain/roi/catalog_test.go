package roi

import (
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCatalogValid(t *testing.T) {
	c := Default()
	if c.Version != CurrentVersion {
		t.Fatalf("version=%d want %d", c.Version, CurrentVersion)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
	for _, name := range []string{TemplateTeamEnabled, TemplatePanelOpened, TemplateIsAttack, TemplateIsAttacked} {
		if _, ok := c.Template(name); !ok {
			t.Fatalf("template %q missing from default catalog", name)
		}
	}
	if c.HP.Poison == nil {
		t.Fatalf("hp poison signature missing")
	}
	if c.MP.Poison != nil {
		t.Fatalf("mp should not carry a poison signature")
	}
	if got := c.Templates[TemplateIsAttack].Threshold; got != 0.7 {
		t.Fatalf("is_attack threshold=%v want 0.7", got)
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Frame.Width != Default().Frame.Width {
		t.Fatalf("expected default catalog, got width %d", c.Frame.Width)
	}
}

func TestLoadOverride(t *testing.T) {
	c := Default()
	c.Alert.Growth = 2
	data, err := c.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "catalog.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Alert.Growth != 2 {
		t.Fatalf("growth=%d want 2", got.Alert.Growth)
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"version": "version = 9\n[frame]\nwidth = 1000\n",
		"unknown": "version = 1\nbogus = 3\n",
		"syntax":  "version = = 1",
	}
	for name, doc := range cases {
		if _, err := Decode([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	c := Default()
	c.Slot.X = 117.2
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "slot") {
		t.Fatalf("expected slot range error, got %v", err)
	}
	c = Default()
	c.HP.Color.R = Range{Min: 10, Max: 5}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected inverted range error")
	}
}

func TestRectPx(t *testing.T) {
	r := RectPct{X1: 10, Y1: 20, X2: 50, Y2: 100}
	got := r.Px(1000, 500)
	want := image.Rect(100, 100, 500, 500)
	if got != want {
		t.Fatalf("Px=%v want %v", got, want)
	}
}

func TestBarStripSlotOffset(t *testing.T) {
	c := Default()
	s0 := c.HP.Strip(0)
	s1 := c.HP.Strip(1)
	s3 := c.HP.Strip(3)
	if s0 != s1 {
		t.Fatalf("slot 0 and 1 should share a row: %v vs %v", s0, s1)
	}
	if d := s3.Y - s1.Y; d < 2*c.HP.Step-1e-9 || d > 2*c.HP.Step+1e-9 {
		t.Fatalf("slot 3 offset=%v want %v", d, 2*c.HP.Step)
	}
}
