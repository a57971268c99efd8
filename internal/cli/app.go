package cli

import (
	"context"
	"fmt"
	"log/slog"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/quotachat/quotachat/internal/api"
	"github.com/quotachat/quotachat/internal/billing"
	"github.com/quotachat/quotachat/internal/config"
	"github.com/quotachat/quotachat/internal/conversation"
	"github.com/quotachat/quotachat/internal/metrics"
	"github.com/quotachat/quotachat/internal/models"
	"github.com/quotachat/quotachat/internal/session"
)

// page identifies the active view, the TUI equivalent of the web client's
// routes.
type page int

const (
	pageLogin page = iota
	pageRegister
	pageChat
	pageBilling
	pageAccount
)

// Messages produced by command goroutines.
type (
	// authResultMsg settles a login or registration attempt.
	authResultMsg struct {
		identity *models.Identity
		err      error
	}

	// historyLoadedMsg settles the one-shot history fetch.
	historyLoadedMsg struct {
		turns []models.ChatTurn
		err   error
	}

	// turnResolvedMsg settles an in-flight chat turn.
	turnResolvedMsg struct {
		err error
	}

	// rechargeResolvedMsg settles an in-flight recharge.
	rechargeResolvedMsg struct {
		amount float64
		err    error
	}

	// sessionChangedMsg signals that the Identity was replaced or cleared.
	sessionChangedMsg struct{}
)

// appModel is the top-level Bubble Tea model. It routes between views,
// owns the shared session state and surfaces toasts.
type appModel struct {
	cfg    config.Config
	logger *slog.Logger
	theme  Theme

	gateway    *api.Client
	store      *session.Store
	transcript *conversation.Transcript
	turns      *conversation.TurnController
	recharges  *billing.Controller
	collector  *metrics.Collector

	page     page
	login    loginView
	register registerView
	chat     chatView
	billing  billingView
	account  accountView

	toasts        []toast
	watch         <-chan struct{}
	cancelWatch   func()
	historyLoaded bool
	width, height int
}

// newAppModel wires the application together.
func newAppModel(cfg config.Config, logger *slog.Logger) appModel {
	collector := metrics.NewCollector()
	gateway := api.New(cfg.ServerURL,
		api.WithTimeout(cfg.Timeout),
		api.WithCollector(collector),
	)
	store := session.NewStore()
	transcript := conversation.NewTranscript()
	watch, cancel := store.Watch()

	theme := defaultTheme
	return appModel{
		cfg:         cfg,
		logger:      logger,
		theme:       theme,
		gateway:     gateway,
		store:       store,
		transcript:  transcript,
		turns:       conversation.NewTurnController(gateway, store, transcript, collector),
		recharges:   billing.NewController(gateway, store),
		collector:   collector,
		page:        pageLogin,
		login:       newLoginView(theme),
		register:    newRegisterView(theme),
		chat:        newChatView(theme),
		billing:     newBillingView(theme),
		account:     newAccountView(theme),
		watch:       watch,
		cancelWatch: cancel,
	}
}

// Init starts the session watch loop and focuses the login form.
func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.watchSessionCmd(), m.login.focusCmd())
}

// watchSessionCmd blocks on the store's watch channel and forwards changes
// into the event loop. Re-issued after every delivery.
func (m appModel) watchSessionCmd() tea.Cmd {
	watch := m.watch
	return func() tea.Msg {
		if _, ok := <-watch; !ok {
			return nil
		}
		return sessionChangedMsg{}
	}
}

// goTo switches to the target page, enforcing the route guard: pages behind
// authentication fall back to login when no Identity is live.
func (m appModel) goTo(target page) (appModel, tea.Cmd) {
	if target != pageLogin && target != pageRegister {
		if _, ok := m.store.Get(); !ok {
			target = pageLogin
		}
	}
	m.page = target
	switch m.page {
	case pageLogin:
		return m, m.login.focusCmd()
	case pageRegister:
		return m, m.register.focusCmd()
	case pageChat:
		return m, m.chat.focusCmd()
	case pageBilling:
		return m, m.billing.focusCmd()
	}
	return m, nil
}

// pushToast records a transient notification.
func (m appModel) pushToast(kind toastKind, message string) (appModel, tea.Cmd) {
	t, cmd := newToast(kind, message)
	m.toasts = append(m.toasts, t)
	return m, cmd
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			m.cancelWatch()
			return m, tea.Quit
		}

	case sessionChangedMsg:
		// Re-render against the fresh snapshot and keep watching.
		return m, m.watchSessionCmd()

	case toastExpiredMsg:
		for i, t := range m.toasts {
			if t.id == msg.id {
				m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
				break
			}
		}
		return m, nil

	case authResultMsg:
		return m.handleAuthResult(msg)

	case historyLoadedMsg:
		if msg.err != nil {
			// Degrades to an empty transcript; not surfaced as fatal.
			m.logger.Warn("failed to load chat history", "error", msg.err)
			return m, nil
		}
		m.transcript.LoadHistory(msg.turns)
		m.logger.Info("chat history loaded", "turns", len(msg.turns))
		return m, nil

	case turnResolvedMsg:
		m.chat.submitting = false
		if msg.err != nil {
			m.logger.Warn("chat turn failed", "error", msg.err)
			return m.pushToast(toastError, api.UserMessage(msg.err))
		}
		// Commit clears the input buffer; rollback leaves it for retry.
		m.chat.input.Reset()
		return m, nil

	case rechargeResolvedMsg:
		if msg.err != nil {
			m.logger.Warn("recharge failed", "amount", msg.amount, "error", msg.err)
			return m.pushToast(toastError, api.UserMessage(msg.err))
		}
		m.billing.custom.Reset()
		m.logger.Info("recharge committed", "amount", msg.amount)
		return m.pushToast(toastSuccess, fmt.Sprintf("Successfully recharged $%.2f", msg.amount))
	}

	switch m.page {
	case pageLogin:
		return m.updateLogin(msg)
	case pageRegister:
		return m.updateRegister(msg)
	case pageChat:
		return m.updateChat(msg)
	case pageBilling:
		return m.updateBilling(msg)
	case pageAccount:
		return m.updateAccount(msg)
	}
	return m, nil
}

// handleAuthResult settles login/register: populate the store, enter the
// chat view and trigger the one-shot history load.
func (m appModel) handleAuthResult(msg authResultMsg) (tea.Model, tea.Cmd) {
	m.login.submitting = false
	m.register.submitting = false

	if msg.err != nil {
		m.logger.Warn("authentication failed", "error", msg.err)
		return m.pushToast(toastError, api.UserMessage(msg.err))
	}

	m.store.Set(*msg.identity)
	m.logger.Info("signed in",
		"user", msg.identity.Username,
		"balance", msg.identity.Balance,
		"available_tokens", msg.identity.AvailableTokens)

	next, focusCmd := m.goTo(pageChat)
	cmds := []tea.Cmd{focusCmd}
	if !next.historyLoaded {
		next.historyLoaded = true
		cmds = append(cmds, next.loadHistoryCmd(msg.identity.UserID))
	}
	return next, tea.Batch(cmds...)
}

// loadHistoryCmd fetches the persisted history once per session.
func (m appModel) loadHistoryCmd(userID string) tea.Cmd {
	gateway := m.gateway
	return func() tea.Msg {
		turns, err := gateway.FetchHistory(context.Background(), userID)
		return historyLoadedMsg{turns: turns, err: err}
	}
}

// logout clears the session and returns to the login view.
func (m appModel) logout() (tea.Model, tea.Cmd) {
	m.store.Clear()
	m.transcript.Reset()
	m.historyLoaded = false
	m.logger.Info("signed out")
	next, cmd := m.goTo(pageLogin)
	return next, cmd
}

func (m appModel) View() tea.View {
	var body string
	switch m.page {
	case pageLogin:
		body = m.login.view(m.width)
	case pageRegister:
		body = m.register.view(m.width)
	case pageChat:
		body = m.viewChat()
	case pageBilling:
		body = m.viewBilling()
	case pageAccount:
		body = m.viewAccount()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.statusBar(),
		body,
		renderToasts(m.theme, m.toasts),
	)
	return tea.NewView(content)
}

// statusBar renders the identity snapshot shared by every view.
func (m appModel) statusBar() string {
	title := m.theme.titleStyle().Render("QuotaChat")
	identity, ok := m.store.Get()
	if !ok {
		return title + m.theme.hintStyle().Render("  —  not signed in")
	}
	return fmt.Sprintf("%s  %s  %s  %s",
		title,
		m.theme.accentStyle().Render(identity.Username),
		m.theme.successStyle().Render(fmt.Sprintf("$%.2f", identity.Balance)),
		m.theme.hintStyle().Render(fmt.Sprintf("%d tokens", identity.AvailableTokens)),
	)
}

// Run starts the TUI application.
func Run(cfg config.Config, logger *slog.Logger) error {
	p := tea.NewProgram(newAppModel(cfg, logger))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run UI: %w", err)
	}
	return nil
}
