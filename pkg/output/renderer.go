// Package output renders transition reports for humans and machines.
// Styled terminal output degrades to plain text on dumb terminals and
// pipes; XML is the machine-readable escape hatch.
package output

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/genlink/pkg/report"
	"github.com/charmbracelet/lipgloss"
	"github.com/pterm/pterm"
)

// RenderError formats a fatal error for stderr, styled to match the
// terminal renderer.
func RenderError(err error) string {
	return errorStyle.Render(fmt.Sprintf("Error: %v", err))
}

// badge returns the pterm style for a hook outcome.
func badge(failed bool) *pterm.Style {
	if failed {
		return pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	}
	return pterm.NewStyle(pterm.BgGreen, pterm.FgWhite)
}

// RenderReport renders a transition report in the given format.
// FormatAuto must be resolved with DetectFormat before calling.
func RenderReport(rep *report.Report, f Format) (string, error) {
	switch f {
	case FormatXML:
		data, err := rep.XML()
		if err != nil {
			return "", err
		}
		return string(data), nil
	case FormatTerminal:
		return renderTerminal(rep), nil
	default:
		return renderText(rep), nil
	}
}

func renderTerminal(rep *report.Report) string {
	var b strings.Builder

	title := fmt.Sprintf("Generation %d", rep.Generation)
	if rep.DryRun {
		title += " (dry-run)"
	}
	b.WriteString(titleStyle.Render(title) + "\n")

	section := func(label string, style lipgloss.Style, targets []string) {
		if len(targets) == 0 {
			return
		}
		b.WriteString(style.Render(label) + "\n")
		for _, target := range targets {
			b.WriteString(listItemStyle.Render(pathStyle.Render(target)) + "\n")
		}
	}

	section("linked", successStyle, rep.Created)
	section("removed", mutedStyle, rep.Removed)
	section("backed up", warningStyle, rep.BackedUp)
	section("skipped", mutedStyle, rep.Skipped)

	if len(rep.Hooks) > 0 {
		b.WriteString(titleStyle.Render("hooks") + "\n")
		for _, h := range rep.Hooks {
			line := fmt.Sprintf(" %s %s",
				badge(h.Failed()).Sprintf(" %s ", hookLabel(h)),
				pathStyle.Render(h.Target))
			if h.Failed() {
				line += " " + errorStyle.Render(h.Command)
			}
			b.WriteString(line + "\n")
		}
	}

	if rep.Success() {
		b.WriteString(successStyle.Render("ok") + "\n")
	} else {
		b.WriteString(errorStyle.Render("completed with hook failures") + "\n")
	}
	return b.String()
}

func renderText(rep *report.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "generation %d", rep.Generation)
	if rep.DryRun {
		b.WriteString(" (dry-run)")
	}
	b.WriteString("\n")

	section := func(label string, targets []string) {
		for _, target := range targets {
			fmt.Fprintf(&b, "%s\t%s\n", label, target)
		}
	}
	section("linked", rep.Created)
	section("removed", rep.Removed)
	section("backed-up", rep.BackedUp)
	section("skipped", rep.Skipped)

	for _, h := range rep.Hooks {
		if h.Failed() {
			fmt.Fprintf(&b, "hook-failed\t%s\texit=%d\n", h.Target, h.ExitCode)
		} else {
			fmt.Fprintf(&b, "hook-ok\t%s\n", h.Target)
		}
	}
	return b.String()
}

func hookLabel(h report.HookResult) string {
	if h.Failed() {
		return fmt.Sprintf("exit %d", h.ExitCode)
	}
	return "ok"
}
