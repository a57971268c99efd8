package cli

import (
	"context"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/quotachat/quotachat/internal/models"
)

// registerView is the account creation form with local field validation.
type registerView struct {
	theme      Theme
	email      textinput.Model
	username   textinput.Model
	password   textinput.Model
	focusIdx   int
	fieldErrs  map[string][]string
	submitting bool
}

func newRegisterView(theme Theme) registerView {
	email := textinput.New()
	email.Placeholder = "Email"
	email.CharLimit = 128

	username := textinput.New()
	username.Placeholder = "Username"
	username.CharLimit = 64

	password := textinput.New()
	password.Placeholder = "Password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword

	return registerView{
		theme:    theme,
		email:    email,
		username: username,
		password: password,
	}
}

func (v *registerView) inputs() []*textinput.Model {
	return []*textinput.Model{&v.email, &v.username, &v.password}
}

func (v *registerView) focusCmd() tea.Cmd {
	v.focusIdx = 0
	inputs := v.inputs()
	for i, in := range inputs {
		if i == 0 {
			continue
		}
		in.Blur()
	}
	return inputs[0].Focus()
}

func (v *registerView) moveFocus(delta int) tea.Cmd {
	inputs := v.inputs()
	v.focusIdx = (v.focusIdx + delta + len(inputs)) % len(inputs)
	var cmd tea.Cmd
	for i, in := range inputs {
		if i == v.focusIdx {
			cmd = in.Focus()
		} else {
			in.Blur()
		}
	}
	return cmd
}

// validate runs the pure field validators and records per-field errors.
// Returns true when the form may be submitted.
func (v *registerView) validate(creds models.RegisterCredentials) bool {
	errs := make(map[string][]string)
	if !models.ValidEmail(creds.Email) {
		errs["email"] = []string{"Please enter a valid email address"}
	}
	if usernameErrs := models.ValidateUsername(creds.Username); len(usernameErrs) > 0 {
		errs["username"] = usernameErrs
	}
	if passwordErrs := models.ValidatePassword(creds.Password); len(passwordErrs) > 0 {
		errs["password"] = passwordErrs
	}
	v.fieldErrs = errs
	return len(errs) == 0
}

func (m appModel) updateRegister(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyPressMsg); ok {
		switch key.String() {
		case "tab", "down":
			return m, m.register.moveFocus(1)
		case "shift+tab", "up":
			return m, m.register.moveFocus(-1)
		case "ctrl+r", "esc":
			return m.goTo(pageLogin)
		case "enter":
			return m.submitRegister()
		}
	}

	var cmds []tea.Cmd
	for _, in := range m.register.inputs() {
		var cmd tea.Cmd
		*in, cmd = in.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// submitRegister validates locally first; the gateway is only called when
// every field passes.
func (m appModel) submitRegister() (tea.Model, tea.Cmd) {
	if m.register.submitting {
		return m, nil
	}
	creds := models.RegisterCredentials{
		Email:    m.register.email.Value(),
		Username: m.register.username.Value(),
		Password: m.register.password.Value(),
	}
	if !m.register.validate(creds) {
		return m, nil
	}

	m.register.submitting = true
	gateway := m.gateway
	return m, func() tea.Msg {
		identity, err := gateway.Register(context.Background(), creds)
		return authResultMsg{identity: identity, err: err}
	}
}

func (v registerView) view(width int) string {
	title := v.theme.titleStyle().Render("Create your account")
	hint := v.theme.hintStyle().Render("enter: create account · esc: back to sign in")

	renderErrs := func(field string) string {
		var out string
		for _, e := range v.fieldErrs[field] {
			out += "    " + v.theme.errorStyle().Render(e) + "\n"
		}
		return out
	}

	status := ""
	if v.submitting {
		status = v.theme.accentStyle().Render("Creating account...")
	}

	return "\n" + title + "\n\n" +
		"  " + v.email.View() + "\n" + renderErrs("email") +
		"  " + v.username.View() + "\n" + renderErrs("username") +
		"  " + v.password.View() + "\n" + renderErrs("password") +
		"\n  " + status + "\n" +
		hint + "\n"
}
