package ui

import (
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"
)

// Colors
var (
	Primary   = lipgloss.Color("#33A8FF")
	Secondary = lipgloss.Color("#163047")
	Muted     = lipgloss.Color("#6B7280")
	Success   = lipgloss.Color("#10B981")
	Warning   = lipgloss.Color("#F59E0B")
	Error     = lipgloss.Color("#EF4444")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	CellStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

// StatusColor maps stack, resource, check and change states to theme colors.
func StatusColor(status string) color.Color {
	s := strings.ToLower(status)
	switch {
	case strings.Contains(s, "rollback"), strings.HasSuffix(s, "_failed"):
		return Error
	case strings.HasSuffix(s, "_in_progress"):
		return Warning
	case strings.HasSuffix(s, "_complete"):
		return Success
	}
	switch s {
	case "ok", "active", "available", "healthy", "running", "add":
		return Success
	case "fail", "failed", "error", "unhealthy", "missing", "remove":
		return Error
	case "warn", "warning", "pending", "draining", "modify":
		return Warning
	default:
		return Muted
	}
}

// RenderStatus renders a status string with a colored bullet.
func RenderStatus(status string) string {
	c := StatusColor(status)
	bullet := lipgloss.NewStyle().Foreground(c).Render("●")
	return bullet + " " + status
}
