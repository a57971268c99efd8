// Package billing drives recharge actions against the backend.
package billing

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/quotachat/quotachat/internal/api"
	"github.com/quotachat/quotachat/internal/session"
)

// Quick recharge tiers offered by the billing view, in dollars.
// $10 buys one million tokens.
var QuickAmounts = []float64{10, 20, 50, 100}

// Errors surfaced for locally refused recharges. They never reach the
// gateway.
var (
	ErrInvalidAmount     = errors.New("please enter a valid amount")
	ErrRechargeInFlight  = errors.New("a recharge is already being processed")
	ErrNotAuthenticated  = errors.New("not signed in")
	ErrNoPendingRecharge = errors.New("no recharge in flight")
)

// Gateway is the slice of the remote gateway the controller needs.
type Gateway interface {
	Recharge(ctx context.Context, userID string, amount float64) (*api.RechargeResult, error)
}

// ParseAmount parses a user-entered custom amount. Non-numeric values and
// amounts of zero or less are rejected with ErrInvalidAmount.
func ParseAmount(s string) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return amount, nil
}

// Controller drives a recharge action: local validation, dispatch, then
// commit of the returned balance and quota. At most one recharge is in
// flight per controller; the UI disables recharge affordances while one is
// outstanding.
type Controller struct {
	mu      sync.Mutex
	gateway Gateway
	store   *session.Store

	inFlight      bool
	pendingAmount float64
	pendingUser   string
}

// NewController creates a billing controller.
func NewController(gateway Gateway, store *session.Store) *Controller {
	return &Controller{gateway: gateway, store: store}
}

// InFlight reports whether a recharge is outstanding.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Begin admits a recharge for the given amount after local validation.
func (c *Controller) Begin(amount float64) error {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ErrInvalidAmount
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight {
		return ErrRechargeInFlight
	}
	identity, ok := c.store.Get()
	if !ok {
		return ErrNotAuthenticated
	}

	c.inFlight = true
	c.pendingAmount = amount
	c.pendingUser = identity.UserID
	return nil
}

// Resolve dispatches the admitted recharge and settles it. On success the
// Identity is replaced with the returned balance and quota; on failure it is
// left unchanged. No retry is attempted either way; the user may resubmit.
func (c *Controller) Resolve(ctx context.Context) (amount float64, err error) {
	c.mu.Lock()
	if !c.inFlight {
		c.mu.Unlock()
		return 0, ErrNoPendingRecharge
	}
	amount = c.pendingAmount
	userID := c.pendingUser
	c.mu.Unlock()

	result, rechargeErr := c.gateway.Recharge(ctx, userID, amount)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false

	if rechargeErr != nil {
		return amount, rechargeErr
	}

	if identity, ok := c.store.Get(); ok {
		identity.Balance = result.Balance
		identity.AvailableTokens = result.AvailableTokens
		c.store.Set(identity)
	}
	return amount, nil
}
