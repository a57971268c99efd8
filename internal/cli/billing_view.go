package cli

import (
	"context"
	"errors"
	"fmt"

	"charm.land/bubbles/v2/progress"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/quotachat/quotachat/internal/billing"
)

// quotaBarScale is the token count rendered as a full quota bar: the
// largest quick tier ($100) buys ten million tokens.
const quotaBarScale = 10_000_000

// billingView is the recharge screen: quick tiers, a custom amount and the
// current balance/quota cards.
type billingView struct {
	theme    Theme
	custom   textinput.Model
	quota    progress.Model
	focusIdx int // 0..len(QuickAmounts)-1 are tiers, len is the custom field
}

func newBillingView(theme Theme) billingView {
	custom := textinput.New()
	custom.Placeholder = "Enter amount"
	custom.CharLimit = 16

	quota := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return billingView{
		theme:  theme,
		custom: custom,
		quota:  quota,
	}
}

func (v *billingView) focusCmd() tea.Cmd {
	v.focusIdx = 0
	v.custom.Blur()
	return nil
}

func (v *billingView) customFocused() bool {
	return v.focusIdx == len(billing.QuickAmounts)
}

func (v *billingView) moveFocus(delta int) tea.Cmd {
	n := len(billing.QuickAmounts) + 1
	v.focusIdx = (v.focusIdx + delta + n) % n
	if v.customFocused() {
		return v.custom.Focus()
	}
	v.custom.Blur()
	return nil
}

func (m appModel) updateBilling(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyPressMsg); ok {
		switch key.String() {
		case "esc":
			return m.goTo(pageChat)
		case "ctrl+l":
			return m.logout()
		case "tab", "right", "down":
			return m, m.billing.moveFocus(1)
		case "shift+tab", "left", "up":
			return m, m.billing.moveFocus(-1)
		case "enter":
			return m.submitRecharge()
		}
	}

	if m.billing.customFocused() {
		var cmd tea.Cmd
		m.billing.custom, cmd = m.billing.custom.Update(msg)
		return m, cmd
	}
	return m, nil
}

// submitRecharge resolves the selected amount (tier or custom) and admits
// it through the billing controller. Invalid custom amounts are refused
// locally with a validation notification; no gateway call is made.
func (m appModel) submitRecharge() (tea.Model, tea.Cmd) {
	var amount float64
	if m.billing.customFocused() {
		parsed, err := billing.ParseAmount(m.billing.custom.Value())
		if err != nil {
			return m.pushToast(toastError, err.Error())
		}
		amount = parsed
	} else {
		amount = billing.QuickAmounts[m.billing.focusIdx]
	}

	err := m.recharges.Begin(amount)
	switch {
	case err == nil:
		recharges := m.recharges
		return m, func() tea.Msg {
			committed, resolveErr := recharges.Resolve(context.Background())
			return rechargeResolvedMsg{amount: committed, err: resolveErr}
		}

	case errors.Is(err, billing.ErrRechargeInFlight):
		// Affordances are disabled while one is outstanding; ignore.
		return m, nil

	case errors.Is(err, billing.ErrNotAuthenticated):
		return m.goTo(pageLogin)

	default:
		return m.pushToast(toastError, err.Error())
	}
}

func (m appModel) viewBilling() string {
	identity, _ := m.store.Get()

	title := m.theme.titleStyle().Render("Billing & Recharge")

	balanceCard := fmt.Sprintf("%s %s",
		m.theme.hintStyle().Render("Current Balance:"),
		m.theme.successStyle().Render(fmt.Sprintf("$%.2f", identity.Balance)),
	)
	tokensCard := fmt.Sprintf("%s %s",
		m.theme.hintStyle().Render("Available Tokens:"),
		m.theme.accentStyle().Render(fmt.Sprintf("%d", identity.AvailableTokens)),
	)

	pct := float64(identity.AvailableTokens) / float64(quotaBarScale)
	if pct > 1 {
		pct = 1
	}
	quotaBar := m.billing.quota.ViewAs(pct)

	busy := m.recharges.InFlight()

	var tiers string
	for i, amount := range billing.QuickAmounts {
		label := fmt.Sprintf("$%.0f (%dM tokens)", amount, int(amount/10))
		style := m.theme.hintStyle()
		switch {
		case busy:
			// All recharge affordances stay disabled between submission
			// and settlement.
		case i == m.billing.focusIdx:
			style = m.theme.accentStyle().Bold(true)
			label = "> " + label
		default:
			style = m.theme.accentStyle()
		}
		tiers += "  " + style.Render(label) + "\n"
	}

	customLine := "  " + m.billing.custom.View()
	if busy {
		customLine += " " + m.theme.hintStyle().Render("(processing...)")
	}

	pricing := m.theme.hintStyle().Render(
		"Rate: $10 per 1M tokens · Minimum recharge: $10")
	hint := m.theme.hintStyle().Render(
		"enter: recharge · tab: select · esc: back to chat")

	return "\n" + title + "\n\n" +
		"  " + balanceCard + "\n" +
		"  " + tokensCard + "\n" +
		"  " + quotaBar + "\n\n" +
		m.theme.accentStyle().Render("Quick Recharge Options") + "\n" +
		tiers + "\n" +
		m.theme.accentStyle().Render("Custom Amount") + "\n" +
		customLine + "\n\n" +
		pricing + "\n" + hint + "\n"
}
