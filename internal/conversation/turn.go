package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/quotachat/quotachat/internal/api"
	"github.com/quotachat/quotachat/internal/metrics"
	"github.com/quotachat/quotachat/internal/models"
	"github.com/quotachat/quotachat/internal/session"
)

// Errors returned by Begin when a submission is refused locally. None of
// them reach the gateway.
var (
	ErrEmptyInput       = errors.New("message is empty")
	ErrTurnInFlight     = errors.New("a message is already being sent")
	ErrNotAuthenticated = errors.New("not signed in")
	ErrNoTokens         = errors.New("no available tokens")
)

// ErrNoPendingTurn is returned by Resolve when no turn was admitted.
var ErrNoPendingTurn = errors.New("no turn in flight")

// ChatGateway is the slice of the remote gateway the turn controller needs.
type ChatGateway interface {
	SendChatTurn(ctx context.Context, userID, inputText string) (*api.ChatTurnResult, error)
}

// TurnState is the per-turn state machine position.
type TurnState int

const (
	// TurnIdle means no turn is outstanding; submissions are admitted.
	TurnIdle TurnState = iota
	// TurnSubmitting means one turn is in flight; further submissions are
	// refused until it commits or rolls back.
	TurnSubmitting
)

// TurnController drives one user-submitted chat turn end to end:
// optimistic insert, gateway dispatch, then commit or rollback. The protocol
// is strictly sequential; at most one turn is in flight, which rules out
// out-of-order commit/rollback races without per-turn reconciliation.
type TurnController struct {
	mu         sync.Mutex
	gateway    ChatGateway
	store      *session.Store
	transcript *Transcript
	collector  *metrics.Collector

	state        TurnState
	markLen      int
	pendingID    string
	pendingInput string
	pendingUser  string
}

// NewTurnController creates a controller bound to a gateway, session store
// and transcript. The collector is optional.
func NewTurnController(gateway ChatGateway, store *session.Store, transcript *Transcript, collector *metrics.Collector) *TurnController {
	return &TurnController{
		gateway:    gateway,
		store:      store,
		transcript: transcript,
		collector:  collector,
	}
}

// State returns the current state machine position.
func (c *TurnController) State() TurnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Begin admits a new turn: it validates the local preconditions and performs
// the optimistic insert of the user entry. The input buffer is not cleared
// here; it is cleared only on commit, so a failed turn leaves the user's
// text available for resubmission.
func (c *TurnController) Begin(input string) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ErrEmptyInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != TurnIdle {
		return ErrTurnInFlight
	}

	identity, ok := c.store.Get()
	if !ok {
		return ErrNotAuthenticated
	}
	// Soft guard; the backend enforces quota authoritatively.
	if identity.AvailableTokens <= 0 {
		return ErrNoTokens
	}

	c.markLen = c.transcript.Len()
	c.pendingID = uuid.New().String()
	c.pendingInput = trimmed
	c.pendingUser = identity.UserID
	c.state = TurnSubmitting

	c.transcript.Append(models.TranscriptEntry{
		ID:      c.pendingID,
		Role:    models.RoleUser,
		Content: trimmed,
		Pending: true,
	})
	return nil
}

// Resolve dispatches the admitted turn to the gateway and settles it.
// On success it appends the assistant entry, replaces the Identity with the
// backend's post-turn balance and quota, and returns the assistant entry.
// On failure it removes exactly the optimistic entries this turn added and
// returns the gateway error; the Identity is left unchanged.
//
// Resolve must be called exactly once after a successful Begin. It is safe
// to call from a goroutine outside the UI loop.
func (c *TurnController) Resolve(ctx context.Context) (models.TranscriptEntry, error) {
	c.mu.Lock()
	if c.state != TurnSubmitting {
		c.mu.Unlock()
		return models.TranscriptEntry{}, ErrNoPendingTurn
	}
	userID := c.pendingUser
	input := c.pendingInput
	c.mu.Unlock()

	result, err := c.gateway.SendChatTurn(ctx, userID, input)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.transcript.truncateTo(c.markLen)
		c.state = TurnIdle
		return models.TranscriptEntry{}, err
	}

	c.transcript.confirm(c.pendingID)

	tokens := result.TokensUsed
	cost := result.AmountUsed
	assistant := models.TranscriptEntry{
		ID:      uuid.New().String(),
		Role:    models.RoleAssistant,
		Content: result.Response,
		Tokens:  &tokens,
		Cost:    &cost,
	}
	c.transcript.Append(assistant)

	// Single atomic replace computed from a fresh snapshot: balance and
	// quota always come from the same completed operation.
	if identity, ok := c.store.Get(); ok {
		identity.Balance = result.RemainingBalance
		identity.AvailableTokens = result.RemainingTokens
		c.store.Set(identity)
	}

	if c.collector != nil {
		c.collector.RecordTurn(result.TokensUsed, result.AmountUsed)
	}

	c.state = TurnIdle
	return assistant, nil
}
