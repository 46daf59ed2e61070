package view

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/soocke/linm-bot-go/config"
	"github.com/soocke/linm-bot-go/ui/model"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ConfigPanel edits the decision rules. Applied rules are saved to the
// config file and used by accounts started afterwards.
type ConfigPanel interface {
	Build(parent *FrameWidget, startRow int) (endRow int)
	ApplyChanges()
}

type configPanel struct {
	cfg      *config.Config
	cfgPath  string
	onApply  func(config.RulesConfig)
	logger   *slog.Logger
	applyBtn *ButtonWidget
	widgets  map[string]*TextWidget
}

// NewConfigPanel creates the view bound to cfg. cfg is only touched on the
// Tk thread; onApply hands the new rules to the session factory.
func NewConfigPanel(cfg *config.Config, cfgPath string, onApply func(config.RulesConfig), logger *slog.Logger) ConfigPanel {
	return &configPanel{cfg: cfg, cfgPath: cfgPath, onApply: onApply, logger: logger, widgets: make(map[string]*TextWidget)}
}

func (v *configPanel) Build(parent *FrameWidget, startRow int) (row int) {
	r := v.cfg.Rules
	row = startRow
	makeRow := func(id, label, value string) {
		lbl := Label(Txt(label), Anchor("w"))
		Grid(lbl, In(parent), Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		w := Text(Height(1), Width(16))
		Grid(w, In(parent), Row(row), Column(1), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		w.Delete("1.0", END)
		w.Insert("1.0", value)
		v.widgets[id] = w
		row++
	}
	makeRow("returnHome", "Return Home Cooldown", r.ReturnHomeCooldown.String())
	makeRow("teleport", "Teleport Cooldown", r.TeleportCooldown.String())
	makeRow("teleportAfterHome", "Teleport After Home", r.TeleportAfterHome.String())
	makeRow("soulCeil", "Soul Transfer MP Ceiling", strconv.Itoa(r.SoulTransferMPCeil))
	makeRow("mpRole", "MP Role", r.MPRole)
	makeRow("noHeal", "No-Heal Roles (comma separated)", strings.Join(r.NoHealRoles, ","))
	makeRow("soloTeleport", "Solo Teleport Only (true/false)", fmt.Sprintf("%t", r.SoloTeleportOnly))
	v.applyBtn = Button(Txt("Apply Rules"), Command(func() { v.ApplyChanges() }))
	Grid(v.applyBtn, In(parent), Row(row), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	row++
	return row
}

func (v *configPanel) text(id string) string {
	w := v.widgets[id]
	if w == nil {
		return ""
	}
	return strings.TrimSpace(strings.Join(w.Get("1.0", END), ""))
}

func (v *configPanel) ApplyChanges() {
	if v.cfg == nil {
		return
	}
	cfg := *v.cfg
	rules, bad := model.ApplyRules(cfg.Rules, v.text)
	if len(bad) > 0 && v.logger != nil {
		v.logger.Warn("ignored invalid rule fields", "fields", bad)
	}
	cfg.Rules = rules
	if err := cfg.Validate(); err != nil {
		if v.logger != nil {
			v.logger.Error("config invalid", "error", err)
		}
		return
	}
	*v.cfg = cfg
	if v.onApply != nil {
		v.onApply(cfg.Rules)
	}
	if err := v.cfg.Save(v.cfgPath); err != nil {
		if v.logger != nil {
			v.logger.Error("config save failed", "error", err)
		}
	} else if v.logger != nil {
		v.logger.Info("config saved", "path", v.cfgPath)
	}
}
