package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Palette. Adaptive colours keep the listings readable on light terminals.
var (
	ColorAccent = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}
	ColorOption = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	ColorOK     = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"}
	ColorWarn   = lipgloss.AdaptiveColor{Light: "#C2410C", Dark: "#FB923C"}
	ColorFail   = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	ColorDim    = lipgloss.AdaptiveColor{Light: "#78716C", Dark: "#A8A29E"}
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent).Underline(true)
	okStyle      = lipgloss.NewStyle().Foreground(ColorOK)
	warnStyle    = lipgloss.NewStyle().Foreground(ColorWarn)
	failStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorFail)
	dimStyle     = lipgloss.NewStyle().Foreground(ColorDim)
	strongStyle  = lipgloss.NewStyle().Bold(true)
	commandStyle = lipgloss.NewStyle().Foreground(ColorAccent).Italic(true)

	// FlagStyle renders command-line arguments and options in help text.
	FlagStyle = lipgloss.NewStyle().Foreground(ColorOption)
)

// Listing styles shared by the device and transition lists.
var (
	KeyStyle     = lipgloss.NewStyle().Foreground(ColorOption).Bold(true)
	ItemStyle    = lipgloss.NewStyle()
	DetailStyle  = lipgloss.NewStyle().Foreground(ColorDim).Italic(true)
	CurrentStyle = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
)

func Title(text string) string { return headingStyle.Render(text) }

func Success(text string) string { return okStyle.Render("✓ " + text) }

func Warning(text string) string { return warnStyle.Render("! " + text) }

func Error(text string) string { return failStyle.Render("✗ " + text) }

func Muted(text string) string { return dimStyle.Render(text) }

func Bold(text string) string { return strongStyle.Render(text) }

// Code renders a command the user can run.
func Code(text string) string { return commandStyle.Render("`" + text + "`") }

// Field prints one indented "label: value" line of a summary.
func Field(label, value string) {
	fmt.Printf("  %s %s\n", dimStyle.Render(label+":"), KeyStyle.Render(value))
}
