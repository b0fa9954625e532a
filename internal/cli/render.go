package cli

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"github.com/julianstephens/ticktask/internal/constants"
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	MutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Italic(true)
	DangerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	PanelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// ErrNotConfirmed is returned when a prompt cannot be shown and --yes was not given.
var ErrNotConfirmed = errors.New("confirmation required: rerun with --yes")

const defaultWidth = 80

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f any) bool {
	file, ok := f.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// Width returns the terminal width of the output, or 80 when it is not a terminal.
func (c *Context) Width() int {
	if file, ok := c.Writer().(*os.File); ok {
		if w, _, err := term.GetSize(int(file.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return defaultWidth
}

// Render applies style when color output is enabled.
func (c *Context) Render(style lipgloss.Style, text string) string {
	if !c.Color {
		return text
	}
	return style.Render(text)
}

// RenderStatus colors a status label by its status.
func (c *Context) RenderStatus(s constants.Status, label string) string {
	switch s {
	case constants.StatusCompleted:
		return c.Render(SuccessStyle, label)
	case constants.StatusMissed:
		return c.Render(DangerStyle, label)
	default:
		return c.Render(WarningStyle, label)
	}
}

// RenderMarkdown renders a task description for the terminal. Plain output keeps the source.
func (c *Context) RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	if !c.Color {
		return strings.TrimSpace(md)
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(c.Width()-4),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// Confirm asks a yes/no question. Without a terminal it requires AssumeYes.
func (c *Context) Confirm(title, description string) (bool, error) {
	if c.AssumeYes {
		return true, nil
	}
	if !IsTerminal(c.Reader()) {
		return false, ErrNotConfirmed
	}

	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithTheme(huh.ThemeDracula()).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

// Table renders rows as borderless aligned columns separated by two spaces.
func Table(w io.Writer, header []string, rows [][]string) {
	last := len(header) - 1
	for _, row := range rows {
		last = max(last, len(row)-1)
	}
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col == last {
				return lipgloss.NewStyle()
			}
			return lipgloss.NewStyle().PaddingRight(2)
		}).
		Headers(header...).
		Rows(rows...)

	for _, line := range strings.Split(strings.TrimRight(t.Render(), "\n"), "\n") {
		io.WriteString(w, strings.TrimRight(line, " ")+"\n")
	}
}
