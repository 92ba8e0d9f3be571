package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/iammorganparry/clive/apps/regression/internal/lifecycle"
	"github.com/iammorganparry/clive/apps/regression/internal/plot"
)

// View renders the model
func (m Model) View() string {
	snap := m.ctrl.Snapshot()

	var body string
	switch {
	case m.uploading:
		body = m.uploadView(snap)
	case snap.State == lifecycle.StateConfiguring:
		body = m.selectionView(snap)
	case snap.State == lifecycle.StateAnalyzed:
		body = m.resultsView(snap)
	default:
		body = m.uploadView(snap)
	}

	sections := []string{m.renderHeader(snap), body, m.renderStatusBar()}
	if m.showHelp {
		sections = append(sections, m.help.FullHelpView(m.keys.FullHelp()))
	} else {
		sections = append(sections, m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the title line
func (m Model) renderHeader(snap lifecycle.Snapshot) string {
	title := HeaderStyle.Render("Regression Workbench")
	if snap.Session == nil {
		return title
	}
	name := snap.Session.FileName
	if name == "" {
		name = snap.Session.ID
	}
	return title + DimStyle.Render(fmt.Sprintf("  %s · %d rows · %s", name, snap.Session.RowCount, snap.State))
}

func (m Model) uploadView(snap lifecycle.Snapshot) string {
	var b strings.Builder
	b.WriteString(PanelTitleStyle.Render("Upload data"))
	b.WriteString("\n")
	b.WriteString(DimStyle.Render("CSV or Excel file (.csv, .xlsx, .xls)"))
	b.WriteString("\n\n")
	b.WriteString(InputStyle.Render(m.input.View()))
	if snap.Session != nil {
		b.WriteString("\n")
		b.WriteString(DimStyle.Render("esc keeps the current session"))
	}
	return PanelStyle.Render(b.String())
}

func (m Model) selectionView(snap lifecycle.Snapshot) string {
	var b strings.Builder
	b.WriteString(PanelTitleStyle.Render("Variables"))
	b.WriteString("\n")

	for i, col := range snap.Session.Columns {
		cursor := "  "
		if i == m.cursor {
			cursor = CursorStyle.Render("▸ ")
		}

		var line string
		switch {
		case col == snap.Selection.Dependent:
			line = DependentStyle.Render("[y] " + col)
		case slices.Contains(snap.Selection.Independents, col):
			line = IndependentStyle.Render("[x] " + col)
		default:
			line = "[ ] " + col
		}
		b.WriteString(cursor + line + "\n")
	}

	b.WriteString("\n")
	if snap.Selection.IsValid() {
		b.WriteString(SuccessStyle.Render("Ready: press a to analyze"))
	} else {
		b.WriteString(DimStyle.Render("Choose a dependent (d) and at least one independent (space)"))
	}
	return PanelStyle.Render(b.String())
}

func (m Model) resultsView(snap lifecycle.Snapshot) string {
	res := snap.Result
	sel := snap.Selection

	var b strings.Builder
	b.WriteString(PanelTitleStyle.Render("Model"))
	b.WriteString("\n")
	b.WriteString(EquationStyle.Render(plot.RenderEquation(res, sel.Dependent, sel.Independents)))
	b.WriteString("\n\n")

	metrics := plot.FormatMetrics(res)
	b.WriteString(MetricLabelStyle.Render("R²   ") + MetricValueStyle.Render(metrics.RSquared) + "\n")
	b.WriteString(MetricLabelStyle.Render("MSE  ") + MetricValueStyle.Render(metrics.MSE) + "\n\n")

	b.WriteString(PanelTitleStyle.Render("Coefficients"))
	b.WriteString("\n")
	for _, row := range plot.CoefficientTable(res, sel.Independents) {
		p := "     -"
		if row.PValue != nil {
			p = fmt.Sprintf("%.4f", *row.PValue)
			if *row.Significant {
				p += " *"
			}
		}
		fmt.Fprintf(&b, "%-20s %12.4f   %s\n", row.Variable, row.Coefficient, p)
	}

	if rs, err := plot.SummarizeResiduals(res); err == nil {
		b.WriteString("\n")
		b.WriteString(PanelTitleStyle.Render("Residuals"))
		b.WriteString("\n")
		fmt.Fprintf(&b, "n=%d  mean=%.4f  sd=%.4f  max|r|=%.4f\n", rs.Count, rs.Mean, rs.StdDev, rs.MaxAbs)
	}

	b.WriteString("\n")
	b.WriteString(m.plotSummary(snap))
	return PanelStyle.Render(b.String())
}

// plotSummary describes which charts are available for the fitted model.
func (m Model) plotSummary(snap lifecycle.Snapshot) string {
	fp, err := m.plots.FunctionCurve(snap.Result, snap.Selection.Independents)
	if err != nil {
		return ErrorStyle.Render(err.Error())
	}
	switch fp.Dimensions() {
	case 1:
		c := fp.Curve
		lo, hi := c.Fitted[0], c.Fitted[len(c.Fitted)-1]
		return DimStyle.Render(fmt.Sprintf("Curve over %s: (%.4f, %.4f) to (%.4f, %.4f), %d points",
			c.Variable, lo.X, lo.Y, hi.X, hi.Y, len(c.Fitted)))
	case 2:
		s := fp.Surface
		return DimStyle.Render(fmt.Sprintf("Surface over %s × %s, %d×%d grid",
			s.XVariable, s.YVariable, len(s.X), len(s.Y)))
	default:
		return DimStyle.Render("No function plot for this many predictors; parity and residual plots in the dashboard (h)")
	}
}

// renderStatusBar renders the bottom status bar
func (m Model) renderStatusBar() string {
	var status string
	switch {
	case m.busy:
		status = StatusRunningStyle.Render(spinnerFrames[m.spinnerIndex] + " " + m.busyLabel + "...")
	case m.status == "":
		status = DimStyle.Render("○ Ready")
	case m.statusErr:
		status = ErrorStyle.Render("✗ " + m.status)
	default:
		status = SuccessStyle.Render(m.status)
	}
	return StatusBarStyle.Render(status)
}
