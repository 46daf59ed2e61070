// Package theme configures the ttk styles of the control panel.
package theme

import (
	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Palette holds the resolved colors of one mode.
type Palette struct {
	AppBg   string
	Surface string
	Primary string
	Danger  string
	Accent  string
	Text    string
}

var (
	light = Palette{AppBg: "#f7f9fb", Surface: "#ffffff", Primary: "#2563eb", Danger: "#dc2626", Accent: "#10b981", Text: "#1e293b"}
	dark  = Palette{AppBg: "#0f172a", Surface: "#1e293b", Primary: "#3b82f6", Danger: "#ef4444", Accent: "#10b981", Text: "#f1f5f9"}
)

// Style names used with Style(...).
const (
	StylePrimaryButton = "primary.TButton" // Start
	StyleDangerButton  = "danger.TButton"  // Stop, Stop All
	StyleAccentLabel   = "accent.TLabel"
)

// InitStyles applies the light or dark styles.
func InitStyles(darkMode bool) {
	if darkMode {
		apply(dark)
		return
	}
	apply(light)
}

func apply(p Palette) {
	_ = ActivateTheme("azure light")
	App.Configure(Background(p.AppBg))
	for name, bg := range map[string]string{StylePrimaryButton: p.Primary, StyleDangerButton: p.Danger} {
		StyleConfigure(name, Background(bg), Foreground("white"), Padding("4p 3p"), Borderwidth(1), Relief("ridge"))
	}
	StyleConfigure(StyleAccentLabel, Foreground(p.Primary), Background(p.Surface), Padding("2p 1p"))
}
