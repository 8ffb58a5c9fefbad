package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/codefactory/guard/internal/guard"
)

var (
	styleApproved = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	styleConfirm  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	styleBlocked  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	styleDim      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleLabel    = lipgloss.NewStyle().Bold(true)
)

// RenderCheck formats a SafetyCheck for human consumption.
func RenderCheck(check *guard.SafetyCheck) string {
	var sb strings.Builder

	switch {
	case check.Approved:
		sb.WriteString(styleApproved.Render("APPROVED"))
	case len(check.RequiredConfirmations) > 0:
		sb.WriteString(styleConfirm.Render("CONFIRMATION REQUIRED"))
	default:
		sb.WriteString(styleBlocked.Render("BLOCKED"))
	}
	fmt.Fprintf(&sb, "  %s\n", styleDim.Render(fmt.Sprintf("confidence %.2f", check.ConfidenceScore)))

	if len(check.BlockedKeywords) > 0 {
		fmt.Fprintf(&sb, "%s %s\n", styleLabel.Render("blocked:"), strings.Join(check.BlockedKeywords, ", "))
	}
	for _, c := range check.RequiredConfirmations {
		fmt.Fprintf(&sb, "%s %s\n", styleConfirm.Render("?"), c)
	}
	for _, w := range check.Warnings {
		fmt.Fprintf(&sb, "%s %s\n", styleDim.Render("·"), w)
	}

	fmt.Fprintf(&sb, "%s %s\n", styleDim.Render("audit:"), check.Metadata.ID)

	return sb.String()
}
