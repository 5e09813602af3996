// Package theme configures the ttk styles of the control panel.
package theme

import (
	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// PaletteSnapshot holds the resolved colors for one mode.
type PaletteSnapshot struct {
	AppBg   string
	Surface string
	Primary string
	Danger  string
	On      string
	Off     string
	Text    string
}

var (
	light = PaletteSnapshot{
		AppBg:   "#f7f9fb",
		Surface: "#ffffff",
		Primary: "#2563eb",
		Danger:  "#dc2626",
		On:      "#10b981",
		Off:     "#94a3b8",
		Text:    "#1e293b",
	}
	dark = PaletteSnapshot{
		AppBg:   "#0f172a",
		Surface: "#1e293b",
		Primary: "#3b82f6",
		Danger:  "#ef4444",
		On:      "#10b981",
		Off:     "#475569",
		Text:    "#f1f5f9",
	}
	darkMode bool
)

// Style names used with Style(...).
const (
	StyleToggleButton = "toggle.TButton"
	StyleDangerButton = "danger.TButton"
	StyleStatusLabel  = "status.TLabel"
	StyleHeaderLabel  = "header.TLabel"
)

// Current returns the palette of the active mode.
func Current() PaletteSnapshot {
	if darkMode {
		return dark
	}
	return light
}

// InitStyles applies the current mode.
func InitStyles() { apply(Current()) }

// ToggleDark flips dark mode, reapplies styles and returns the new mode.
func ToggleDark() bool {
	darkMode = !darkMode
	apply(Current())
	return darkMode
}

func apply(p PaletteSnapshot) {
	_ = ActivateTheme("azure light")
	App.Configure(Background(p.AppBg))

	StyleConfigure(StyleToggleButton,
		Background(p.Primary),
		Foreground("white"),
		Padding("4p 3p"),
		Borderwidth(1),
		Relief("ridge"),
	)
	StyleConfigure(StyleDangerButton,
		Background(p.Danger),
		Foreground("white"),
		Padding("4p 3p"),
		Borderwidth(1),
		Relief("ridge"),
	)
	StyleConfigure(StyleStatusLabel,
		Foreground(p.Text),
		Background(p.Surface),
		Padding("3p 1p"),
	)
	StyleConfigure(StyleHeaderLabel,
		Foreground("white"),
		Background(p.On),
		Padding("4p 2p"),
		Borderwidth(1),
		Relief("groove"),
	)
}
