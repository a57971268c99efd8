package cli

import (
	"context"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/quotachat/quotachat/internal/models"
)

// loginView is the sign-in form.
type loginView struct {
	theme      Theme
	username   textinput.Model
	password   textinput.Model
	focusIdx   int
	submitting bool
}

func newLoginView(theme Theme) loginView {
	username := textinput.New()
	username.Placeholder = "Username"
	username.CharLimit = 64

	password := textinput.New()
	password.Placeholder = "Password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword

	return loginView{
		theme:    theme,
		username: username,
		password: password,
	}
}

func (v *loginView) focusCmd() tea.Cmd {
	v.focusIdx = 0
	v.password.Blur()
	return v.username.Focus()
}

// cycleFocus moves between the two fields.
func (v *loginView) cycleFocus() tea.Cmd {
	v.focusIdx = (v.focusIdx + 1) % 2
	if v.focusIdx == 0 {
		v.password.Blur()
		return v.username.Focus()
	}
	v.username.Blur()
	return v.password.Focus()
}

func (m appModel) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyPressMsg); ok {
		switch key.String() {
		case "tab", "shift+tab", "down", "up":
			return m, m.login.cycleFocus()
		case "ctrl+r":
			return m.goTo(pageRegister)
		case "enter":
			return m.submitLogin()
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.login.username, cmd = m.login.username.Update(msg)
	cmds = append(cmds, cmd)
	m.login.password, cmd = m.login.password.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submitLogin dispatches the login call unless one is already outstanding.
func (m appModel) submitLogin() (tea.Model, tea.Cmd) {
	if m.login.submitting {
		return m, nil
	}
	creds := models.LoginCredentials{
		Username: m.login.username.Value(),
		Password: m.login.password.Value(),
	}
	if creds.Username == "" || creds.Password == "" {
		return m.pushToast(toastError, "Username and password are required")
	}

	m.login.submitting = true
	gateway := m.gateway
	return m, func() tea.Msg {
		identity, err := gateway.Login(context.Background(), creds)
		return authResultMsg{identity: identity, err: err}
	}
}

func (v loginView) view(width int) string {
	title := v.theme.titleStyle().Render("Sign in")
	hint := v.theme.hintStyle().Render("enter: sign in · ctrl+r: create account · ctrl+c: quit")

	status := ""
	if v.submitting {
		status = v.theme.accentStyle().Render("Signing in...")
	}

	return "\n" + title + "\n\n" +
		"  " + v.username.View() + "\n" +
		"  " + v.password.View() + "\n\n" +
		"  " + status + "\n" +
		hint + "\n"
}
