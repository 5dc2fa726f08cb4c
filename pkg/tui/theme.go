package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/exploopio/opsboard/pkg/format"
)

// Theme defines the color palette of the dashboard TUI. Colors are ANSI
// 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	FocusBorderColor lipgloss.Color
	ChipActive       lipgloss.Color

	// Tone colors used for pills and badges.
	Emerald lipgloss.Color
	Sky     lipgloss.Color
	Amber   lipgloss.Color
	Rose    lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText:         lipgloss.Color("252"),
	FaintText:          lipgloss.Color("245"),
	SelectedBackground: lipgloss.Color("237"),
	SelectedForeground: lipgloss.Color("231"),
	HeaderForeground:   lipgloss.Color("117"),
	BorderColor:        lipgloss.Color("238"),
	FocusBorderColor:   lipgloss.Color("39"),
	ChipActive:         lipgloss.Color("39"),
	Emerald:            lipgloss.Color("42"),
	Sky:                lipgloss.Color("75"),
	Amber:              lipgloss.Color("214"),
	Rose:               lipgloss.Color("204"),
}

// ToneColor maps a display tone to its color.
func (theme Theme) ToneColor(tone format.Tone) lipgloss.Color {
	switch tone {
	case format.ToneEmerald:
		return theme.Emerald
	case format.ToneAmber:
		return theme.Amber
	case format.ToneRose:
		return theme.Rose
	case format.ToneSky:
		return theme.Sky
	}
	return theme.NormalText
}

// Tone returns a bold style in the tone's color.
func (theme Theme) Tone(tone format.Tone) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.ToneColor(tone)).Bold(true)
}
