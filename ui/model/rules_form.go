package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/soocke/linm-bot-go/config"
)

// ApplyRules overlays the rules form onto r. field returns the raw text of
// a form field by id. Unparseable fields keep their old value and are
// returned by id.
func ApplyRules(r config.RulesConfig, field func(id string) string) (config.RulesConfig, []string) {
	var bad []string
	duration := func(id string, dst *time.Duration) {
		if d, err := time.ParseDuration(strings.TrimSpace(field(id))); err == nil && d > 0 {
			*dst = d
		} else {
			bad = append(bad, id)
		}
	}
	duration("returnHome", &r.ReturnHomeCooldown)
	duration("teleport", &r.TeleportCooldown)
	duration("teleportAfterHome", &r.TeleportAfterHome)
	if i, err := strconv.Atoi(strings.TrimSpace(field("soulCeil"))); err == nil {
		r.SoulTransferMPCeil = i
	} else {
		bad = append(bad, "soulCeil")
	}
	if s := strings.ToUpper(strings.TrimSpace(field("mpRole"))); s != "" {
		r.MPRole = s
	}
	var roles []string
	for _, s := range strings.Split(field("noHeal"), ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			roles = append(roles, s)
		}
	}
	r.NoHealRoles = roles
	if b, ok := ParseBoolLoose(field("soloTeleport")); ok {
		r.SoloTeleportOnly = b
	} else {
		bad = append(bad, "soloTeleport")
	}
	return r, bad
}

// ParseBoolLoose accepts the usual spellings of true and false.
func ParseBoolLoose(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on", "t":
		return true, true
	case "false", "0", "no", "n", "off", "f":
		return false, true
	default:
		return false, false
	}
}
