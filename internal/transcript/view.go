// Package transcript lays out a practice script as a two-sided chat.
package transcript

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/apresai/convoconnect/internal/script"
)

const (
	defaultWidth  = 80
	minBubble     = 20
	switchCaption = " ROLES SWITCH "
)

var (
	bubbleStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#555555")).
			Padding(0, 1)

	activeBubbleStyle = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder()).
				BorderForeground(lipgloss.Color("#7D56F4")).
				Padding(0, 1)

	labelAStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#04B575"))

	labelBStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF8C42"))

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	plainStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
)

// View holds one parsed script and the active-turn selection. The
// selection belongs to the view, so two views never share a highlight.
type View struct {
	raw    string
	tr     script.Transcript
	active int
}

// New returns an empty view.
func New() *View {
	return &View{tr: script.Parse(""), active: -1}
}

// SetScript replaces the script and clears the selection.
func (v *View) SetScript(raw string) {
	v.raw = raw
	v.tr = script.Parse(raw)
	v.active = -1
}

// Script returns the raw text last passed to SetScript.
func (v *View) Script() string { return v.raw }

// Transcript returns the parsed lines.
func (v *View) Transcript() script.Transcript { return v.tr }

// Active returns the index of the highlighted line, or -1.
func (v *View) Active() int { return v.active }

// Select highlights line i. Only labeled turns can be selected; anything
// else leaves the selection unchanged and returns false.
func (v *View) Select(i int) bool {
	if i < 0 || i >= len(v.tr.Lines) || !v.tr.Lines[i].IsTurn() {
		return false
	}
	v.active = i
	return true
}

// ClearSelection removes the highlight.
func (v *View) ClearSelection() { v.active = -1 }

// SelectNext moves the highlight to the next turn, starting from the first
// one when nothing is selected. It stops at the last turn.
func (v *View) SelectNext() bool {
	for i := v.active + 1; i < len(v.tr.Lines); i++ {
		if v.Select(i) {
			return true
		}
	}
	return false
}

// SelectPrev moves the highlight to the previous turn, starting from the
// last one when nothing is selected.
func (v *View) SelectPrev() bool {
	start := v.active - 1
	if v.active < 0 {
		start = len(v.tr.Lines) - 1
	}
	for i := start; i >= 0; i-- {
		if v.Select(i) {
			return true
		}
	}
	return false
}

// Render lays the transcript out for a terminal of the given width.
func (v *View) Render(width int) string {
	out, _ := v.layout(width)
	return out
}

// ActiveRow returns the first rendered row of the highlighted turn, or -1.
// The screen uses it to keep the selection scrolled into view.
func (v *View) ActiveRow(width int) int {
	if v.active < 0 {
		return -1
	}
	_, spans := v.layout(width)
	for _, sp := range spans {
		if sp.line == v.active {
			return sp.start
		}
	}
	return -1
}

// LineAt returns the index of the turn drawn at the given rendered row and
// column, or -1 when that cell holds a plain line, the separator, the gap
// beside a bubble or nothing.
func (v *View) LineAt(width, row, col int) int {
	_, spans := v.layout(width)
	for _, sp := range spans {
		if row >= sp.start && row < sp.end && col >= sp.left && col < sp.right {
			return sp.line
		}
	}
	return -1
}

// span records the rows and columns a turn bubble occupies.
type span struct {
	line        int
	start, end  int
	left, right int
}

func (v *View) layout(width int) (string, []span) {
	if width <= 0 {
		width = defaultWidth
	}

	var (
		blocks []string
		spans  []span
		rows   int
	)
	add := func(s string) {
		blocks = append(blocks, s)
		rows += lipgloss.Height(s)
	}

	for i, line := range v.tr.Lines {
		if i == v.tr.SwitchIndex {
			add(separator(width))
		}
		if !line.IsTurn() {
			add(plainStyle.Width(width).Render(line.Text))
			continue
		}
		start := rows
		b, left, right := bubble(line, width, i == v.active)
		add(b)
		spans = append(spans, span{line: i, start: start, end: rows, left: left, right: right})
	}
	return strings.Join(blocks, "\n"), spans
}

// bubble renders one turn and returns the column range its box covers.
func bubble(line script.Line, width int, active bool) (string, int, int) {
	inner := width*2/3 - 2
	if inner < minBubble {
		inner = minBubble
	}
	if inner > width-2 {
		inner = width - 2
	}

	label := labelAStyle
	align := lipgloss.Left
	if line.Partner == script.PartnerB {
		label = labelBStyle
		align = lipgloss.Right
	}

	style := bubbleStyle
	if active {
		style = activeBubbleStyle
	}

	body := label.Render(line.Label)
	if line.Text != "" {
		body += "\n" + line.Text
	}
	box := style.Width(inner).Render(body)
	w := lipgloss.Width(box)
	left := 0
	if align == lipgloss.Right && width > w {
		left = width - w
	}
	return lipgloss.PlaceHorizontal(width, align, box), left, left + w
}

func separator(width int) string {
	side := (width - lipgloss.Width(switchCaption)) / 2
	if side < 2 {
		side = 2
	}
	rule := strings.Repeat("─", side)
	return separatorStyle.Render(rule + switchCaption + rule)
}
