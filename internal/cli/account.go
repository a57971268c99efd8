package cli

import (
	"fmt"
	"sort"

	tea "charm.land/bubbletea/v2"
)

// accountView shows the identity snapshot and the session usage statistics.
type accountView struct {
	theme Theme
}

func newAccountView(theme Theme) accountView {
	return accountView{theme: theme}
}

func (m appModel) updateAccount(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyPressMsg); ok {
		switch key.String() {
		case "esc":
			return m.goTo(pageChat)
		case "ctrl+b":
			return m.goTo(pageBilling)
		case "ctrl+l":
			return m.logout()
		}
	}
	return m, nil
}

func (m appModel) viewAccount() string {
	identity, _ := m.store.Get()
	snap := m.collector.Snapshot()

	title := m.theme.titleStyle().Render("Account")

	out := "\n" + title + "\n\n"
	out += fmt.Sprintf("  Username:         %s\n", identity.Username)
	out += fmt.Sprintf("  Balance:          $%.2f\n", identity.Balance)
	out += fmt.Sprintf("  Available tokens: %d\n", identity.AvailableTokens)

	out += "\n" + m.theme.accentStyle().Render("This session") + "\n"
	out += fmt.Sprintf("  Duration:        %.0fs\n", snap.SessionSeconds)
	out += fmt.Sprintf("  Turns committed: %d\n", snap.TurnsCommitted)
	out += fmt.Sprintf("  Tokens used:     %d\n", snap.TokensUsed)
	out += fmt.Sprintf("  Amount spent:    $%.4f\n", snap.AmountSpent)

	if len(snap.Calls) > 0 {
		out += "\n" + m.theme.accentStyle().Render("Gateway calls") + "\n"
		ops := make([]string, 0, len(snap.Calls))
		for op := range snap.Calls {
			ops = append(ops, op)
		}
		sort.Strings(ops)
		for _, op := range ops {
			cs := snap.Calls[op]
			out += fmt.Sprintf("  %-10s %3d calls, avg %.0fms (min %dms, max %dms)\n",
				op, cs.Count, cs.AvgTimeMs, cs.MinTimeMs, cs.MaxTimeMs)
		}
	}

	out += "\n" + m.theme.hintStyle().Render("esc: back to chat · ctrl+b: billing · ctrl+l: sign out") + "\n"
	return out
}
