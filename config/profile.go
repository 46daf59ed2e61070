package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// ErrProfileIncomplete is returned alongside a usable, defaulted profile
// when keys are missing or malformed.
var ErrProfileIncomplete = errors.New("profile incomplete")

// Thresholds are percentages compared against detected hp/mp.
type Thresholds struct {
	Heal       int // HpCure
	TransferHP int // MpTransHP
	MPProtect  int // MpProtect
	Flee       int // HpBackHome
}

// Hotkeys are the key tokens bound to each action.
type Hotkeys struct {
	ReturnHome   string
	Teleport     string
	Cure         string
	CurePoison   string
	SoulTransfer string
	MajorAttack  string
	MinorAttack  string
}

// AccountProfile is loaded once at session start and not modified after.
type AccountProfile struct {
	Slot       int
	Role       string
	CurePoison bool
	Thresholds Thresholds
	Hotkeys    Hotkeys
}

// DefaultProfile returns the values used for missing keys.
func DefaultProfile() AccountProfile {
	return AccountProfile{
		Slot: 0,
		Role: "ELF",
		Thresholds: Thresholds{
			Heal:       60,
			TransferHP: 50,
			MPProtect:  30,
			Flee:       30,
		},
		Hotkeys: Hotkeys{
			ReturnHome:   "8",
			Teleport:     "7",
			Cure:         "1",
			CurePoison:   "6",
			SoulTransfer: "2",
			MajorAttack:  "3",
			MinorAttack:  "4",
		},
	}
}

// LoadProfile reads an INI profile with Common, Thresholds and Hotkey
// sections. It never fails hard: the returned profile is always usable and
// any missing or malformed key is defaulted, logged once and reported via
// an error wrapping ErrProfileIncomplete.
func LoadProfile(path string, logger *slog.Logger) (AccountProfile, error) {
	p := DefaultProfile()
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		if logger != nil {
			logger.Warn("profile unreadable, using defaults", "path", path, "error", err)
		}
		if errors.Is(err, os.ErrNotExist) {
			return p, fmt.Errorf("%w: %s not found", ErrProfileIncomplete, path)
		}
		return p, fmt.Errorf("%w: %s: %v", ErrProfileIncomplete, path, err)
	}

	r := profileReader{v: v, path: path, logger: logger}
	p.Slot = r.intKey("Common", "TeamPosition", p.Slot)
	p.Role = strings.ToUpper(r.strKey("Common", "Role", p.Role))
	p.CurePoison = r.boolKey("Common", "CurePoison", p.CurePoison)

	p.Thresholds.Heal = r.pctKey("Thresholds", "HpCure", p.Thresholds.Heal)
	p.Thresholds.TransferHP = r.pctKey("Thresholds", "MpTransHP", p.Thresholds.TransferHP)
	p.Thresholds.MPProtect = r.pctKey("Thresholds", "MpProtect", p.Thresholds.MPProtect)
	p.Thresholds.Flee = r.pctKey("Thresholds", "HpBackHome", p.Thresholds.Flee)

	p.Hotkeys.ReturnHome = r.strKey("Hotkey", "BackHomeKey", p.Hotkeys.ReturnHome)
	p.Hotkeys.Teleport = r.strKey("Hotkey", "TeleportKey", p.Hotkeys.Teleport)
	p.Hotkeys.Cure = r.strKey("Hotkey", "CureKey", p.Hotkeys.Cure)
	p.Hotkeys.CurePoison = r.strKey("Hotkey", "CurePoisonKey", p.Hotkeys.CurePoison)
	p.Hotkeys.SoulTransfer = r.strKey("Hotkey", "TransHpKey", p.Hotkeys.SoulTransfer)
	p.Hotkeys.MajorAttack = r.strKey("Hotkey", "MajorAttackKey", p.Hotkeys.MajorAttack)
	p.Hotkeys.MinorAttack = r.strKey("Hotkey", "MinorAttackKey", p.Hotkeys.MinorAttack)

	if p.Slot < 0 {
		r.bad("Common", "TeamPosition", strconv.Itoa(p.Slot))
		p.Slot = 0
	}
	if len(r.problems) > 0 {
		return p, fmt.Errorf("%w: %s: %s", ErrProfileIncomplete, path, strings.Join(r.problems, ", "))
	}
	return p, nil
}

// optional keys are defaulted without being reported.
var optionalKeys = map[string]bool{
	"common.curepoison":    true,
	"hotkey.curepoisonkey": true,
}

type profileReader struct {
	v        *viper.Viper
	path     string
	logger   *slog.Logger
	problems []string
}

func (r *profileReader) raw(section, key string) (string, bool) {
	k := strings.ToLower(section + "." + key)
	if !r.v.IsSet(k) {
		if !optionalKeys[k] {
			r.problems = append(r.problems, section+"."+key+" missing")
			if r.logger != nil {
				r.logger.Warn("profile key missing, using default", "path", r.path, "section", section, "key", key)
			}
		}
		return "", false
	}
	return strings.TrimSpace(r.v.GetString(k)), true
}

func (r *profileReader) bad(section, key, val string) {
	r.problems = append(r.problems, fmt.Sprintf("%s.%s invalid %q", section, key, val))
	if r.logger != nil {
		r.logger.Warn("profile key invalid, using default", "path", r.path, "section", section, "key", key, "value", val)
	}
}

func (r *profileReader) strKey(section, key, def string) string {
	s, ok := r.raw(section, key)
	if !ok {
		return def
	}
	if s == "" {
		r.bad(section, key, s)
		return def
	}
	return s
}

func (r *profileReader) intKey(section, key string, def int) int {
	s, ok := r.raw(section, key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.bad(section, key, s)
		return def
	}
	return n
}

func (r *profileReader) pctKey(section, key string, def int) int {
	n := r.intKey(section, key, def)
	if n < 0 || n > 100 {
		r.bad(section, key, strconv.Itoa(n))
		return def
	}
	return n
}

func (r *profileReader) boolKey(section, key string, def bool) bool {
	s, ok := r.raw(section, key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		r.bad(section, key, s)
		return def
	}
	return b
}
