package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/quotachat/quotachat/internal/conversation"
	"github.com/quotachat/quotachat/internal/models"
)

// chatView is the conversation screen: transcript, input line and the
// persistent zero-token warning.
type chatView struct {
	theme      Theme
	input      textinput.Model
	spinner    spinner.Model
	submitting bool
}

func newChatView(theme Theme) chatView {
	input := textinput.New()
	input.Placeholder = "Type your message..."
	input.CharLimit = 4096

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return chatView{
		theme:   theme,
		input:   input,
		spinner: sp,
	}
}

func (v *chatView) focusCmd() tea.Cmd {
	return v.input.Focus()
}

func (m appModel) updateChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "enter":
			return m.submitTurn()
		case "ctrl+b":
			return m.goTo(pageBilling)
		case "ctrl+t":
			return m.goTo(pageAccount)
		case "ctrl+l":
			return m.logout()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.chat.spinner, cmd = m.chat.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.chat.input, cmd = m.chat.input.Update(msg)
	return m, cmd
}

// submitTurn admits a turn through the controller. Refused submissions are
// silent no-ops except for the zero-token case, which the view already
// surfaces persistently.
func (m appModel) submitTurn() (tea.Model, tea.Cmd) {
	err := m.turns.Begin(m.chat.input.Value())
	switch {
	case err == nil:
		m.chat.submitting = true
		turns := m.turns
		resolve := func() tea.Msg {
			_, resolveErr := turns.Resolve(context.Background())
			return turnResolvedMsg{err: resolveErr}
		}
		return m, tea.Batch(resolve, m.chat.spinner.Tick)

	case errors.Is(err, conversation.ErrNotAuthenticated):
		return m.goTo(pageLogin)

	default:
		// Empty input, zero tokens or a turn already in flight: no gateway
		// call, no transcript change.
		return m, nil
	}
}

func (m appModel) viewChat() string {
	identity, _ := m.store.Get()

	header := fmt.Sprintf("%s  %s",
		m.theme.titleStyle().Render("AI Chat"),
		m.theme.hintStyle().Render(fmt.Sprintf("Available Tokens: %d", identity.AvailableTokens)),
	)

	body := m.renderTranscript()

	inputLine := m.chat.input.View()
	if m.chat.submitting {
		inputLine = m.chat.spinner.View() + " " + inputLine
	}

	var warning string
	if identity.AvailableTokens == 0 {
		warning = m.theme.errorStyle().Render(
			"You have no available tokens. Please recharge your account to continue chatting.") + "\n"
	}

	hint := m.theme.hintStyle().Render("enter: send · ctrl+b: billing · ctrl+t: account · ctrl+l: sign out")

	return header + "\n\n" + body + "\n" + inputLine + "\n" + warning + hint + "\n"
}

// renderTranscript renders the most recent entries that fit the window.
func (m appModel) renderTranscript() string {
	entries := m.transcript.Entries()
	if len(entries) == 0 {
		return m.theme.hintStyle().Render("No messages yet. Say hello!") + "\n"
	}

	// Reserve lines for header, input, warning and hints.
	maxLines := m.height - 8
	if maxLines < 4 {
		maxLines = 4
	}

	var lines []string
	for _, e := range entries {
		lines = append(lines, m.renderEntry(e)...)
	}
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.Join(lines, "\n") + "\n"
}

// renderEntry formats one message, with token/cost accounting once the turn
// is confirmed.
func (m appModel) renderEntry(e models.TranscriptEntry) []string {
	var label string
	switch e.Role {
	case models.RoleUser:
		label = m.theme.userStyle().Render("You")
	default:
		label = m.theme.botStyle().Render("AI")
	}
	if e.Pending {
		label += m.theme.hintStyle().Render(" (sending)")
	}

	lines := []string{label + " " + e.Content}
	if e.Billed() {
		lines = append(lines, m.theme.hintStyle().Render(
			fmt.Sprintf("    Tokens: %d | Cost: $%.4f", *e.Tokens, *e.Cost)))
	}
	return lines
}
