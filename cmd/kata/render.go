package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/germanamz/kata/pkg/agent"
)

var (
	colorAccent  = lipgloss.Color("#0969da")
	colorMuted   = lipgloss.Color("#656d76")
	colorError   = lipgloss.Color("#cf222e")
	colorMagenta = lipgloss.Color("#8250df")

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorMagenta).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMagenta).
			Padding(0, 1)
	userPrefixStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	agentPrefixStyle = lipgloss.NewStyle().Bold(true).Foreground(colorMagenta)
	dimStyle         = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle       = lipgloss.NewStyle().
				PaddingLeft(1).
				BorderLeft(true).
				BorderStyle(lipgloss.ThickBorder()).
				BorderForeground(colorError)
)

// markdown renders agent replies for the terminal. A nil renderer prints raw text.
type markdown struct {
	r *glamour.TermRenderer
}

func newMarkdown(width int) markdown {
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return markdown{}
	}
	return markdown{r: r}
}

func (m markdown) render(text string) string {
	if m.r == nil {
		return text
	}
	out, err := m.r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func banner(title string) string {
	return bannerStyle.Render(title)
}

// fmtTokens formats a token count for display, using k/M suffixes.
func fmtTokens(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// fmtDuration formats a duration for display.
func fmtDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}

// printMetrics writes the run report shown after an ask.
func printMetrics(w io.Writer, m agent.Metrics) {
	tools := "none"
	if used := m.ToolsUsed(); len(used) > 0 {
		tools = strings.Join(used, ", ")
	}

	fmt.Fprintln(w, dimStyle.Render("Total tokens: "+fmtTokens(m.Usage.Total())))
	fmt.Fprintln(w, dimStyle.Render("Execution time: "+fmtDuration(m.Duration)))
	fmt.Fprintln(w, dimStyle.Render("Tools used: "+tools))
}
