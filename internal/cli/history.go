package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quotachat/quotachat/internal/api"
	"github.com/quotachat/quotachat/internal/config"
	"github.com/quotachat/quotachat/internal/conversation"
	"github.com/quotachat/quotachat/internal/models"
)

var historyUsername string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the reconciled chat transcript without the TUI",
	Long: `Sign in, fetch the persisted chat history and print the reconciled
transcript to stdout. The password is read from the terminal (never from
flags or the environment).

Examples:
  quotachat history --username alice
  quotachat history --username alice --server https://chat.example.com`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historyUsername, "username", "u", "", "account username")
	_ = historyCmd.MarkFlagRequired("username")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel, true)
	defer cleanup()

	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	client := api.New(cfg.ServerURL, api.WithTimeout(cfg.Timeout))
	ctx := context.Background()

	identity, err := client.Login(ctx, models.LoginCredentials{
		Username: historyUsername,
		Password: string(password),
	})
	if err != nil {
		return fmt.Errorf("%s", api.UserMessage(err))
	}
	logger.Info("signed in", "user", identity.Username)

	turns, err := client.FetchHistory(ctx, identity.UserID)
	if err != nil {
		return fmt.Errorf("%s", api.UserMessage(err))
	}

	entries := conversation.Reconcile(turns)
	if len(entries) == 0 {
		fmt.Println("No chat history.")
		return nil
	}

	for _, e := range entries {
		label := "You"
		if e.Role == models.RoleAssistant {
			label = "AI "
		}
		ts := ""
		if e.Timestamp != nil {
			ts = e.Timestamp.Format("2006-01-02 15:04") + "  "
		}
		fmt.Printf("%s%s  %s\n", ts, label, strings.TrimSpace(e.Content))
		if e.Role == models.RoleAssistant && e.Billed() {
			fmt.Printf("%s      Tokens: %d | Cost: $%.4f\n", strings.Repeat(" ", len(ts)), *e.Tokens, *e.Cost)
		}
	}
	return nil
}
