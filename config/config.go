package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config holds runtime configuration for the bot and its accounts.
// Fields are loaded from a YAML file; missing keys keep their defaults.
type Config struct {
	Debug       bool   `mapstructure:"debug"`
	CatalogPath string `mapstructure:"catalog"`
	TemplateDir string `mapstructure:"template_dir"`
	ProfileDir  string `mapstructure:"profile_dir"`
	OutputDir   string `mapstructure:"output_dir"`
	JournalPath string `mapstructure:"journal"`
	HideWindows bool   `mapstructure:"hide_windows"`
	Dark        bool   `mapstructure:"dark"`

	Capture  CaptureConfig `mapstructure:"capture"`
	Input    InputConfig   `mapstructure:"input"`
	Rules    RulesConfig   `mapstructure:"rules"`
	Boss     BossConfig    `mapstructure:"boss"`
	Accounts []Account     `mapstructure:"accounts"`
}

// CaptureConfig selects the capture backend.
type CaptureConfig struct {
	// Backend is one of "window", "screen" or "replay".
	Backend   string `mapstructure:"backend"`
	ReplayDir string `mapstructure:"replay_dir"`
	Stride    int    `mapstructure:"stride"`
	Refine    bool   `mapstructure:"refine"`
}

// InputConfig selects the input injection backend.
type InputConfig struct {
	// Backend is one of "window", "adb", "arduino" or "record".
	Backend    string        `mapstructure:"backend"`
	ADBPath    string        `mapstructure:"adb_path"`
	SerialPort string        `mapstructure:"serial_port"`
	Baud       int           `mapstructure:"baud"`
	KeyHold    time.Duration `mapstructure:"key_hold"`
}

// RulesConfig tunes decision cooldowns and role handling.
type RulesConfig struct {
	ReturnHomeCooldown time.Duration `mapstructure:"return_home_cooldown"`
	TeleportCooldown   time.Duration `mapstructure:"teleport_cooldown"`
	TeleportAfterHome  time.Duration `mapstructure:"teleport_after_home"`
	SoulTransferMPCeil int           `mapstructure:"soul_transfer_mp_ceil"`
	MPRole             string        `mapstructure:"mp_role"`
	NoHealRoles        []string      `mapstructure:"no_heal_roles"`
	// SoloTeleportOnly skips random teleport while the profile sits in a
	// team slot, so the party is not left behind.
	SoloTeleportOnly bool `mapstructure:"solo_teleport_only"`
}

// BossConfig describes the scheduled encounter slots.
type BossConfig struct {
	LeadMinutes int        `mapstructure:"lead_minutes"`
	WindowStart int        `mapstructure:"window_start"`
	WindowEnd   int        `mapstructure:"window_end"`
	Slots       []BossSlot `mapstructure:"slots"`
}

// BossSlot is one scheduled encounter time (HH:MM).
type BossSlot struct {
	Time         string   `mapstructure:"time" yaml:"time"`
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	SkipWeekdays []string `mapstructure:"skip_weekdays" yaml:"skip_weekdays"`
	AltWeekdays  []string `mapstructure:"alt_weekdays" yaml:"alt_weekdays"`
}

// Account binds a game window to a profile file.
// Slices of structs are written as-is on Save, hence the yaml tags.
type Account struct {
	Name    string `mapstructure:"name" yaml:"name"`
	Profile string `mapstructure:"profile" yaml:"profile"`
	// Device is the debug-bridge serial for the adb backend.
	Device string `mapstructure:"device" yaml:"device"`
	// Rect is x,y,w,h of the screen region for the screen backend.
	Rect []int `mapstructure:"rect" yaml:"rect"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		TemplateDir: "templates",
		ProfileDir:  "profile",
		OutputDir:   "LinMOut",
		JournalPath: "LinMOut/journal.db",
		Capture:     CaptureConfig{Backend: "window", Stride: 1},
		Input:       InputConfig{Backend: "window", ADBPath: "adb", Baud: 9600, KeyHold: 40 * time.Millisecond},
		Rules: RulesConfig{
			ReturnHomeCooldown: 5 * time.Second,
			TeleportCooldown:   3 * time.Second,
			TeleportAfterHome:  5 * time.Second,
			SoulTransferMPCeil: 90,
			MPRole:             "ELF",
			NoHealRoles:        []string{"KNIGHT"},
		},
		Boss: BossConfig{
			LeadMinutes: 5,
			WindowStart: 5,
			WindowEnd:   10,
			Slots: []BossSlot{
				{Time: "13:00", Enabled: true},
				{Time: "19:00", Enabled: true},
				{Time: "20:00", SkipWeekdays: []string{"Sunday"}},
				{Time: "21:00", Enabled: true, SkipWeekdays: []string{"Sunday"}},
				{Time: "22:00"},
				{Time: "23:00", AltWeekdays: []string{"Friday"}},
			},
		},
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	d := DefaultConfig()
	if c.TemplateDir == "" {
		c.TemplateDir = d.TemplateDir
	}
	if c.ProfileDir == "" {
		c.ProfileDir = d.ProfileDir
	}
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.Capture.Stride <= 0 {
		c.Capture.Stride = 1
	}
	if c.Input.Baud <= 0 {
		c.Input.Baud = d.Input.Baud
	}
	if c.Input.KeyHold < 0 {
		c.Input.KeyHold = d.Input.KeyHold
	}
	if c.Rules.ReturnHomeCooldown <= 0 {
		c.Rules.ReturnHomeCooldown = d.Rules.ReturnHomeCooldown
	}
	if c.Rules.TeleportCooldown <= 0 {
		c.Rules.TeleportCooldown = d.Rules.TeleportCooldown
	}
	if c.Rules.TeleportAfterHome <= 0 {
		c.Rules.TeleportAfterHome = d.Rules.TeleportAfterHome
	}
	if c.Rules.SoulTransferMPCeil <= 0 || c.Rules.SoulTransferMPCeil > 100 {
		c.Rules.SoulTransferMPCeil = d.Rules.SoulTransferMPCeil
	}
	if c.Boss.LeadMinutes <= 0 || c.Boss.LeadMinutes >= 60 {
		c.Boss.LeadMinutes = d.Boss.LeadMinutes
	}
	if c.Boss.WindowStart < 0 || c.Boss.WindowEnd > 59 || c.Boss.WindowEnd < c.Boss.WindowStart {
		c.Boss.WindowStart, c.Boss.WindowEnd = d.Boss.WindowStart, d.Boss.WindowEnd
	}

	var errs []error
	switch c.Capture.Backend {
	case "window", "screen", "replay":
	default:
		errs = append(errs, fmt.Errorf("capture.backend %q not one of window, screen, replay", c.Capture.Backend))
	}
	switch c.Input.Backend {
	case "window", "adb", "arduino", "record":
	default:
		errs = append(errs, fmt.Errorf("input.backend %q not one of window, adb, arduino, record", c.Input.Backend))
	}
	for i, a := range c.Accounts {
		if strings.TrimSpace(a.Name) == "" {
			errs = append(errs, fmt.Errorf("accounts[%d]: name is empty", i))
		}
		if c.Capture.Backend == "screen" && len(a.Rect) != 4 {
			errs = append(errs, fmt.Errorf("accounts[%d]: screen backend needs rect [x,y,w,h]", i))
		}
	}
	for i, s := range c.Boss.Slots {
		if _, err := time.Parse("15:04", s.Time); err != nil {
			errs = append(errs, fmt.Errorf("boss.slots[%d]: bad time %q", i, s.Time))
		}
	}
	return errors.Join(errs...)
}

// ProfilePath resolves an account's profile file.
func (c *Config) ProfilePath(a Account) string {
	if a.Profile == "" {
		return filepath.Join(c.ProfileDir, a.Name+".ini")
	}
	if filepath.IsAbs(a.Profile) {
		return a.Profile
	}
	return filepath.Join(c.ProfileDir, a.Profile)
}

// Load reads configuration from the given YAML file path. If the file does
// not exist it returns DefaultConfig(). On parse error it returns defaults
// with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return DefaultConfig(), fmt.Errorf("read config: %w", err)
	}
	// ZeroFields replaces default slices instead of merging into them.
	if err := v.Unmarshal(cfg, viper.DecoderConfigOption(func(dc *mapstructure.DecoderConfig) { dc.ZeroFields = true })); err != nil {
		return DefaultConfig(), fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Save writes the configuration to the given path in YAML format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	var m map[string]any
	if err := mapstructure.Decode(*c, &m); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	v := viper.New()
	for k, val := range m {
		v.Set(k, val)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return v.WriteConfigAs(path)
}
