package tui

import (
	"fmt"
	"strings"

	"github.com/stackpilot/stackpilot/internal/state"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

func currentSpinner(frame int) string {
	return spinnerFrames[frame%len(spinnerFrames)]
}

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)

	if m.NotFound {
		b.WriteString(dimStyle.Render("  no run in this workspace, run 'stackpilot setup' to start one"))
		b.WriteString("\n")
		renderFooter(&b)
		return b.String()
	}
	if m.State == nil {
		b.WriteString(dimStyle.Render("  loading..."))
		b.WriteString("\n")
		return b.String()
	}

	renderPhases(&b, m)
	renderResources(&b, m.State)
	renderFooter(&b)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	title := "stackpilot"
	if m.ProjectName != "" {
		title += ": " + m.ProjectName
	}
	b.WriteString(titleStyle.Render(title))

	status := " "
	switch {
	case m.Err != nil:
		status += failedStyle.Render(fmt.Sprintf("Error: %v", m.Err))
	case m.Done:
		status += readyStyle.Render("Complete")
	case m.State == nil || m.NotFound:
		status += dimStyle.Render("No run")
	case m.State.Status == state.StatusFailed:
		status += failedStyle.Render("Failed")
	case m.State.Status == state.StatusPausedAtAuth:
		status += warningStyle.Render("Paused (operator input needed)")
	default:
		status += activeStyle.Render(currentSpinner(m.SpinnerFrame)+" ") +
			warningStyle.Render(string(m.State.CurrentPhase))
	}
	b.WriteString(status)
	b.WriteString("\n")
}

func renderPhases(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Phases"))
	b.WriteString("\n")

	current := phaseIndex(m.State.CurrentPhase)
	for i, row := range phaseRows {
		var mark, name string
		switch {
		case i < current || (i == current && m.State.Status == state.StatusComplete):
			mark = readyStyle.Render(checkMark)
			name = dimStyle.Render(row.Name)
		case i == current && m.State.Status == state.StatusFailed:
			mark = failedStyle.Render(crossMark)
			name = failedStyle.Render(row.Name)
		case i == current && m.State.Status == state.StatusPausedAtAuth:
			mark = warningStyle.Render(warnMark)
			name = warningStyle.Render(row.Name)
		case i == current:
			mark = activeStyle.Render(spinner)
			name = activeStyle.Render(row.Name)
		default:
			mark = dimStyle.Render(pending)
			name = dimStyle.Render(row.Name)
		}
		fmt.Fprintf(b, "  %s %s\n", mark, name)
	}
}

func renderResources(b *strings.Builder, st *state.RunState) {
	rows := []struct {
		label string
		value *string
	}{
		{"Repository", st.Resources.RepoFullName},
		{"Hosting project", st.Resources.VercelProjectID},
		{"Backend ref", st.Resources.SupabaseRef},
	}

	any := false
	for _, r := range rows {
		if r.value != nil {
			any = true
			break
		}
	}
	if !any {
		return
	}

	b.WriteString(sectionStyle.Render("  Resources"))
	b.WriteString("\n")
	for _, r := range rows {
		if r.value == nil {
			continue
		}
		fmt.Fprintf(b, "  %s %s %s\n", readyStyle.Render(checkMark), r.label+":", *r.value)
	}
}

func renderFooter(b *strings.Builder) {
	b.WriteString(footerStyle.Render("  q to quit"))
	b.WriteString("\n")
}
