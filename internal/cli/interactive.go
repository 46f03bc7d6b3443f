package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/apresai/convoconnect/internal/observability"
	"github.com/apresai/convoconnect/internal/script"
	"github.com/apresai/convoconnect/internal/transcript"
	"github.com/apresai/convoconnect/internal/workflow"
)

// shareFocus tracks which control receives keys on the script screen.
type shareFocus int

const (
	focusTranscript shareFocus = iota
	focusEmail
)

// generationDoneMsg reports the outcome of one provider call.
type generationDoneMsg struct {
	id   string
	text string
	err  error
}

// openedMsg reports the outcome of handing a mailto link to the OS.
type openedMsg struct {
	link string
	err  error
}

// tuiModel is the Bubble Tea model for the practice screen. The workflow
// controller and transcript view are pointers so every copy of the model
// made by the runtime shares the same state.
type tuiModel struct {
	ctx      context.Context
	ctrl     *workflow.Controller
	gen      script.Generator
	view     *transcript.View
	open     func(string) error
	model    string
	shareURL string

	topic textarea.Model
	email textinput.Model
	spin  spinner.Model
	vp    viewport.Model
	focus shareFocus

	width  int
	height int
	link   string
	notice string
}

// style constants
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Italic(true)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1)

	topicStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 3)

	buttonDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555")).
			Padding(0, 3)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB86C"))

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8BE9FD")).
			Underline(true)

	headerBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#7D56F4"))
)

const (
	defaultScreenWidth  = 80
	defaultScreenHeight = 24
	// rows reserved below the transcript for the share controls and help
	footerRows = 7
)

func newTUIModel(ctx context.Context, ctrl *workflow.Controller, gen script.Generator, model, shareURL string) tuiModel {
	ta := textarea.New()
	ta.Placeholder = "Describe what you want to talk about..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 500
	ta.SetHeight(3)
	ta.SetWidth(defaultScreenWidth - 4)
	ta.KeyMap.InsertNewline.SetEnabled(false)

	ti := textinput.New()
	ti.Placeholder = "partner@example.com"
	ti.Prompt = "Partner's email: "
	ti.CharLimit = 254

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	m := tuiModel{
		ctx:      ctx,
		ctrl:     ctrl,
		gen:      gen,
		view:     transcript.New(),
		open:     openURL,
		model:    model,
		shareURL: shareURL,
		topic:    ta,
		email:    ti,
		spin:     sp,
		vp:       viewport.New(defaultScreenWidth, defaultScreenHeight-footerRows),
		width:    defaultScreenWidth,
		height:   defaultScreenHeight,
	}
	return m
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.topic.SetWidth(max(msg.Width-4, 20))
		m.resizeViewport()
		return m, nil

	case spinner.TickMsg:
		if m.ctrl.Phase() != workflow.PhaseGenerating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case generationDoneMsg:
		return m.finishGeneration(msg)

	case openedMsg:
		if msg.err != nil {
			slog.Warn("Failed to open mail client", "error", msg.err)
			m.notice = "Couldn't open a mail client. Copy the link below instead."
		} else {
			m.notice = "Opened your mail client."
		}
		return m, nil

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.ctrl.Phase() {
		case workflow.PhaseInitial:
			return m.updateInitial(msg)
		case workflow.PhaseTopicSelected:
			return m.updateTopic(msg)
		case workflow.PhaseGenerating:
			// Editing and resubmission wait for the request in flight.
			return m, nil
		case workflow.PhaseScriptGenerated:
			if m.focus == focusEmail {
				return m.updateEmail(msg)
			}
			return m.updateTranscript(msg)
		}
	}
	return m, nil
}

func (m tuiModel) updateInitial(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "enter", " ":
		return m.newTopic()
	}
	return m, nil
}

func (m tuiModel) updateTopic(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "ctrl+r":
		return m.newTopic()
	case "enter":
		return m.submit()
	}

	var cmd tea.Cmd
	m.topic, cmd = m.topic.Update(msg)
	if err := m.ctrl.EditTopic(m.topic.Value()); err != nil {
		slog.Debug("Ignored topic edit", "error", err)
	}
	m.notice = ""
	return m, cmd
}

func (m tuiModel) updateTranscript(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		m.view.SelectPrev()
		m.refreshTranscript(true)
	case "down", "j":
		m.view.SelectNext()
		m.refreshTranscript(true)
	case "esc":
		m.view.ClearSelection()
		m.refreshTranscript(false)
	case "tab", "e":
		m.focus = focusEmail
		cmd := m.email.Focus()
		return m, cmd
	case "ctrl+r", "n":
		return m.newTopic()
	default:
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m tuiModel) updateEmail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "esc":
		m.focus = focusTranscript
		m.email.Blur()
		return m, nil
	case "enter":
		return m.send()
	}

	var cmd tea.Cmd
	m.email, cmd = m.email.Update(msg)
	if err := m.ctrl.SetPartnerEmail(m.email.Value()); err != nil {
		slog.Debug("Ignored email edit", "error", err)
	}
	m.link = ""
	return m, cmd
}

func (m tuiModel) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.ctrl.Phase() != workflow.PhaseScriptGenerated {
		return m, nil
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	}

	row := msg.Y - lipgloss.Height(m.headerView()) + m.vp.YOffset
	if line := m.view.LineAt(m.vp.Width, row, msg.X); line >= 0 {
		m.view.Select(line)
		m.refreshTranscript(false)
	}
	return m, nil
}

// newTopic draws a random topic and resets everything tied to the previous
// script.
func (m tuiModel) newTopic() (tea.Model, tea.Cmd) {
	topic, err := m.ctrl.RequestTopic()
	if err != nil {
		slog.Debug("Ignored topic request", "error", err)
		return m, nil
	}
	m.topic.SetValue(topic)
	m.view.SetScript("")
	m.email.Reset()
	m.email.Blur()
	m.focus = focusTranscript
	m.link = ""
	m.notice = ""
	m.refreshTranscript(false)
	cmd := m.topic.Focus()
	return m, cmd
}

func (m tuiModel) submit() (tea.Model, tea.Cmd) {
	req, ok, err := m.ctrl.Submit()
	if err != nil {
		slog.Debug("Ignored submit", "error", err)
		return m, nil
	}
	if !ok {
		m.notice = "Enter a topic first."
		return m, nil
	}
	m.topic.Blur()
	m.notice = ""
	return m, tea.Batch(m.spin.Tick, m.generate(req))
}

// generate runs the provider call off the update loop.
func (m tuiModel) generate(req workflow.Request) tea.Cmd {
	gen, ctx := m.gen, m.ctx
	return func() tea.Msg {
		text, err := gen.Generate(observability.DetachTraceContext(ctx), req.Topic)
		return generationDoneMsg{id: req.ID, text: text, err: err}
	}
}

func (m tuiModel) finishGeneration(msg generationDoneMsg) (tea.Model, tea.Cmd) {
	if err := m.ctrl.Resolve(msg.id, msg.text, msg.err); err != nil {
		slog.Warn("Dropped generation result", "error", err)
		return m, nil
	}

	if m.ctrl.Phase() == workflow.PhaseTopicSelected {
		cmd := m.topic.Focus()
		return m, cmd
	}

	m.view.SetScript(m.ctrl.Script())
	m.focus = focusTranscript
	m.email.Reset()
	m.link = ""
	m.refreshTranscript(false)
	m.vp.GotoTop()
	return m, nil
}

func (m tuiModel) send() (tea.Model, tea.Cmd) {
	link, err := m.ctrl.Mailto(m.shareURL)
	if errors.Is(err, workflow.ErrNoPartnerEmail) {
		m.notice = "Enter your partner's email to send the script."
		return m, nil
	}
	if err != nil {
		slog.Debug("Ignored send", "error", err)
		return m, nil
	}

	m.link = link
	m.notice = ""
	open := m.open
	return m, func() tea.Msg {
		return openedMsg{link: link, err: open(link)}
	}
}

func (m *tuiModel) resizeViewport() {
	m.vp.Width = m.width
	m.vp.Height = max(m.height-lipgloss.Height(m.headerView())-footerRows, 3)
	m.refreshTranscript(false)
}

// refreshTranscript re-renders the script into the viewport, optionally
// scrolling so the highlighted turn is visible.
func (m *tuiModel) refreshTranscript(follow bool) {
	m.vp.SetContent(m.view.Render(m.vp.Width))
	if !follow {
		return
	}
	row := m.view.ActiveRow(m.vp.Width)
	if row < 0 {
		return
	}
	if row < m.vp.YOffset || row >= m.vp.YOffset+m.vp.Height-3 {
		m.vp.SetYOffset(row)
	}
}

func (m tuiModel) headerView() string {
	title := titleStyle.Render("Conversation Connect")
	sub := subtitleStyle.Render("Speaker-listener practice for couples · " + m.model)
	return headerBorder.Width(m.width).Render(title + "\n" + sub)
}

func (m tuiModel) View() string {
	var b strings.Builder
	b.WriteString(m.headerView() + "\n")

	switch m.ctrl.Phase() {
	case workflow.PhaseInitial:
		b.WriteString("\nOne partner speaks, the other listens and reflects back what they heard.\n")
		b.WriteString("Then you switch. We'll write a short script so you can practice together.\n\n")
		b.WriteString("  " + buttonStyle.Render(" Get a Topic "))
		b.WriteString("\n" + helpStyle.Render("  enter to pick a topic | q to quit"))

	case workflow.PhaseTopicSelected:
		b.WriteString(labelStyle.Render("Your topic") + "\n")
		b.WriteString(m.topic.View() + "\n")
		if msg := m.ctrl.Err(); msg != "" {
			b.WriteString("\n" + errorStyle.Render("  "+msg) + "\n")
		}
		if m.notice != "" {
			b.WriteString("\n" + noticeStyle.Render("  "+m.notice) + "\n")
		}
		b.WriteString("\n  ")
		if m.ctrl.CanSubmit() {
			b.WriteString(buttonStyle.Render(" Generate Script "))
		} else {
			b.WriteString(buttonDimStyle.Render(" Generate Script "))
		}
		b.WriteString("\n" + helpStyle.Render("  type to edit | enter to generate | ctrl+r new topic | esc to quit"))

	case workflow.PhaseGenerating:
		b.WriteString(labelStyle.Render("Your topic") + "\n")
		b.WriteString(topicStyle.Render(m.ctrl.Topic()) + "\n\n")
		b.WriteString(fmt.Sprintf("  %s Writing your practice script...\n", m.spin.View()))
		b.WriteString(helpStyle.Render("  ctrl+c to quit"))

	case workflow.PhaseScriptGenerated:
		b.WriteString(m.vp.View() + "\n")
		b.WriteString(labelStyle.Render("Topic: ") + topicStyle.Render(m.ctrl.Topic()) + "\n")
		b.WriteString(m.email.View())
		if strings.TrimSpace(m.ctrl.PartnerEmail()) != "" {
			b.WriteString("  " + buttonStyle.Render(" Send "))
		} else {
			b.WriteString("  " + buttonDimStyle.Render(" Send "))
		}
		b.WriteString("\n")
		if m.notice != "" {
			b.WriteString(noticeStyle.Render(m.notice) + "\n")
		}
		if m.link != "" {
			b.WriteString(linkStyle.Render(truncate(m.link, m.width)) + "\n")
		}
		if m.focus == focusEmail {
			b.WriteString(helpStyle.Render("  type email | enter to send | tab/esc back to script"))
		} else {
			b.WriteString(helpStyle.Render("  j/k or click to highlight | tab to enter email | ctrl+r new topic | q to quit"))
		}
	}
	return b.String()
}

// truncate shortens s to at most width display cells.
func truncate(s string, width int) string {
	if width <= 3 {
		return s
	}
	return ansi.Truncate(s, width, "...")
}

func runInteractive(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	closeLog, err := setupLogging(true)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := cmd.Context()
	defer startTracing(ctx)()

	gen, err := script.NewGenerator(ctx, cfg.ScriptOptions())
	if err != nil {
		return fmt.Errorf("create generator: %w", err)
	}

	m := newTUIModel(ctx, workflow.NewController(nil, gen), gen, cfg.Model, cfg.ShareURL)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
