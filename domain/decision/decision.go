package decision

import (
	"slices"
	"strings"
	"time"

	"github.com/soocke/linm-bot-go/config"
	"github.com/soocke/linm-bot-go/domain/detect"
	"github.com/soocke/linm-bot-go/domain/roi"
)

// Action is the single input chosen for a tick.
type Action int

const (
	ActionNone Action = iota
	ActionAccept
	ActionContinue
	ActionReturnHome
	ActionTeleport
	ActionHeal
	ActionCurePoison
	ActionMajorAttack
	ActionSoulTransfer
)

var actionNames = map[Action]string{
	ActionNone:         "none",
	ActionAccept:       "accept",
	ActionContinue:     "continue",
	ActionReturnHome:   "return-home",
	ActionTeleport:     "teleport",
	ActionHeal:         "heal",
	ActionCurePoison:   "cure-poison",
	ActionMajorAttack:  "major-attack",
	ActionSoulTransfer: "soul-transfer",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unknown"
}

// Screenshot tags persisted with the frame that triggered them.
const (
	TagLowHP    = "low-hp"
	TagAttacked = "attacked"
)

// Poll intervals per branch.
const (
	PollIdle     = 2 * time.Second
	PollFlee     = 1 * time.Second
	PollHeal     = time.Duration(0)
	PollPoison   = 1 * time.Second
	PollAttack   = 400 * time.Millisecond
	PollTransfer = 1400 * time.Millisecond
)

// Rules tunes cooldowns and alert growth. Build with NewRules.
type Rules struct {
	ReturnHomeCooldown time.Duration
	TeleportCooldown   time.Duration
	TeleportAfterHome  time.Duration
	AlertBase          int
	AlertGrowth        int
	AlertBeeps         int
	DarkAcceptTicks    int
	SoulTransferMPCeil int
	MPRole             string
	NoHealRoles        []string
	SoloTeleportOnly   bool
	// FleeRepeat is how many extra return-home presses follow a flee while
	// under attack.
	FleeRepeat int
}

// NewRules merges the configured cooldowns with the catalog's alert and
// overlay constants.
func NewRules(rc config.RulesConfig, cat roi.Catalog) Rules {
	r := Rules{
		ReturnHomeCooldown: rc.ReturnHomeCooldown,
		TeleportCooldown:   rc.TeleportCooldown,
		TeleportAfterHome:  rc.TeleportAfterHome,
		AlertBase:          max(cat.Alert.Base, 1),
		AlertGrowth:        max(cat.Alert.Growth, 1),
		AlertBeeps:         cat.Alert.Beeps,
		DarkAcceptTicks:    max(cat.Overlay.AcceptAfter, 1),
		SoulTransferMPCeil: rc.SoulTransferMPCeil,
		MPRole:             strings.ToUpper(rc.MPRole),
		SoloTeleportOnly:   rc.SoloTeleportOnly,
		FleeRepeat:         4,
	}
	for _, role := range rc.NoHealRoles {
		r.NoHealRoles = append(r.NoHealRoles, strings.ToUpper(role))
	}
	return r
}

// DefaultRules returns rules built from the default config and catalog.
func DefaultRules() Rules {
	return NewRules(config.DefaultConfig().Rules, roi.Default())
}

// Timers is the per-session mutable state threaded through Decide.
type Timers struct {
	LastReturnHome time.Time
	LastTeleport   time.Time
	NoAttackTicks  int
	AlertThreshold int
	DarkTicks      int
}

// NewTimers returns timers for a session starting at now. Both flee
// timestamps start at now, so no flee fires before its cooldown has run
// once.
func NewTimers(now time.Time, r Rules) Timers {
	return Timers{LastReturnHome: now, LastTeleport: now, AlertThreshold: r.AlertBase}
}

// Decision is the outcome of one tick.
type Decision struct {
	Action Action
	// Hotkey is set for profile-bound actions, Button for fixed controls.
	Hotkey string
	Button roi.ButtonID
	// Repeat extra presses of the same input, 500ms apart.
	Repeat int
	Next   time.Duration
	Timers Timers
	Info   string
	// Screenshot is the tag to persist the frame under, if any.
	Screenshot string
	// Beeps requested for the chosen action; Alert is the no-attack alarm.
	Beeps      int
	Alert      bool
	AlertBeeps int
}

// Acts reports whether the decision sends input.
func (d Decision) Acts() bool { return d.Action != ActionNone }

// Decide picks exactly one action for the tick. It is pure: the result
// depends only on its arguments.
func Decide(st detect.GameState, p config.AccountProfile, t Timers, now time.Time, r Rules) Decision {
	if t.AlertThreshold < r.AlertBase {
		t.AlertThreshold = r.AlertBase
	}
	d := Decision{Next: PollIdle}

	// A dialog dims the team columns, so overlays are handled before the
	// readability check would swallow them.
	if st.Overlay != detect.DialogDark {
		t.DarkTicks = 0
	}
	switch st.Overlay {
	case detect.DialogDark:
		t.DarkTicks++
		if t.DarkTicks >= r.DarkAcceptTicks {
			t.DarkTicks = 0
			d.Action = ActionAccept
			d.Button = roi.AcceptQuest
			d.Info = "confirmation dialog, accept."
		} else {
			d.Info = "confirmation dialog, waiting."
		}
		return finish(d, noAttack(t), r)
	case detect.DialogGrey:
		d.Action = ActionContinue
		d.Hotkey = p.Hotkeys.MinorAttack
		if d.Hotkey == "" {
			d.Hotkey = p.Hotkeys.MajorAttack
		}
		d.Info = "in dialogue, press to continue."
		return finish(d, noAttack(t), r)
	}

	if !st.Readable() {
		switch {
		case st.PanelOpen:
			d.Info = "item or skill panel open, idle."
		default:
			d.Info = "team state unreadable, idle."
		}
		return finish(d, noAttack(t), r)
	}

	if st.IsAttacking {
		t.NoAttackTicks = 0
		t.AlertThreshold = r.AlertBase
	} else {
		t = noAttack(t)
	}

	combat := "idle"
	if st.IsAttacking {
		combat = "fighting"
	}
	d.Info = "combat:" + combat + ", "

	hp, mp := st.HP, st.MP
	sinceHome := now.Sub(t.LastReturnHome)
	sinceTeleport := now.Sub(t.LastTeleport)
	heals := !slices.Contains(r.NoHealRoles, strings.ToUpper(p.Role))

	switch {
	case hp.Below(p.Thresholds.Flee) && hp.Above(0) && sinceHome >= r.ReturnHomeCooldown:
		d.Action = ActionReturnHome
		d.Hotkey = p.Hotkeys.ReturnHome
		d.Next = PollFlee
		d.Screenshot = TagLowHP
		d.Beeps = 5
		d.Info += "low hp, return home."
		if st.IsUnderAttack {
			d.Repeat = r.FleeRepeat
		}
		t.LastReturnHome = now
	case st.IsUnderAttack && sinceTeleport >= r.TeleportCooldown && sinceHome >= r.TeleportAfterHome &&
		(!r.SoloTeleportOnly || p.Slot == 0):
		d.Action = ActionTeleport
		d.Hotkey = p.Hotkeys.Teleport
		d.Next = PollFlee
		d.Screenshot = TagAttacked
		d.Beeps = 3
		d.Info += "under attack, teleport."
		t.LastTeleport = now
	case heals && hp.Below(p.Thresholds.Heal) && hp.Above(0) && mp.Above(5):
		d.Action = ActionHeal
		d.Hotkey = p.Hotkeys.Cure
		d.Next = PollHeal
		d.Info += "heal."
	case p.CurePoison && st.Poisoned:
		d.Action = ActionCurePoison
		d.Hotkey = p.Hotkeys.CurePoison
		if d.Hotkey == "" {
			d.Hotkey = p.Hotkeys.Cure
		}
		d.Next = PollPoison
		d.Info += "cure poison."
	case mp.AtLeast(p.Thresholds.MPProtect) && st.IsAttacking:
		d.Action = ActionMajorAttack
		d.Hotkey = p.Hotkeys.MajorAttack
		d.Next = PollAttack
		d.Info += "attack spell."
	case !st.IsAttacking && mp.Below(r.SoulTransferMPCeil) && mp.AtLeast(0) && strings.ToUpper(p.Role) == r.MPRole:
		d.Action = ActionSoulTransfer
		d.Hotkey = p.Hotkeys.SoulTransfer
		d.Next = PollTransfer
		d.Info += "mp low out of combat, soul transfer."
	case mp.Below(p.Thresholds.MPProtect) && mp.Below(r.SoulTransferMPCeil) && hp.AtLeast(p.Thresholds.TransferHP):
		d.Action = ActionSoulTransfer
		d.Hotkey = p.Hotkeys.SoulTransfer
		d.Next = PollTransfer
		d.Info += "soul transfer."
	default:
		d.Info += "nothing to do."
	}
	return finish(d, t, r)
}

// noAttack counts a tick without attack.
func noAttack(t Timers) Timers {
	t.NoAttackTicks++
	return t
}

// finish fires the no-attack alert when the counter reaches the threshold
// and stores the timers. The counter keeps running until an attack resets it.
func finish(d Decision, t Timers, r Rules) Decision {
	if t.NoAttackTicks > 0 && t.NoAttackTicks >= t.AlertThreshold {
		d.Alert = true
		d.AlertBeeps = r.AlertBeeps
		t.AlertThreshold *= r.AlertGrowth
		if t.AlertThreshold <= t.NoAttackTicks {
			t.AlertThreshold = t.NoAttackTicks + 1
		}
	}
	d.Timers = t
	return d
}
