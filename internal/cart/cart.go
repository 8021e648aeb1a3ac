// Package cart manages the day-scoped shopping cart: one line per dish,
// write-through persistence, derived totals, and the checkout pipeline.
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dishly/dishly/internal/errs"
	"github.com/dishly/dishly/internal/model"
	"github.com/dishly/dishly/internal/storage"
)

// TokenSource reports the current bearer token; the session store
// satisfies it.
type TokenSource interface {
	Token() string
}

// SubmitFunc performs the external order submission once the cart has
// passed validation.
type SubmitFunc func(ctx context.Context, lines []model.CartLine, total float64) error

// Store owns the cart. In-memory lines are canonical; every mutation is
// persisted before it returns.
type Store struct {
	storage storage.Store
	tokens  TokenSource
	log     *zap.Logger
	now     func() time.Time

	mu          sync.Mutex
	lines       []model.CartLine
	checkingOut bool

	notices chan string
}

// New constructs an empty store. Call Hydrate to load persisted lines.
func New(st storage.Store, tokens TokenSource, log *zap.Logger) *Store {
	return &Store{
		storage: st,
		tokens:  tokens,
		log:     log,
		now:     time.Now,
		notices: make(chan string, 8),
	}
}

// Hydrate loads persisted lines, prunes any whose day is not today, and
// re-persists only when something was removed. Corrupt stored data is
// treated as an empty cart. Run once at startup.
func (c *Store) Hydrate() {
	b, found, err := c.storage.Get(storage.KeyCart)
	if err != nil {
		c.log.Warn("read persisted cart", zap.Error(err))
	}
	var lines []model.CartLine
	if found {
		if err := json.Unmarshal(b, &lines); err != nil {
			c.log.Warn("persisted cart unreadable, starting empty", zap.Error(err))
			lines = nil
		}
	}

	pruned, changed := apply(lines, action{kind: actionPrune, today: c.now().Weekday()})

	c.mu.Lock()
	c.lines = pruned
	c.mu.Unlock()

	if changed {
		c.persist(pruned)
		c.notify(fmt.Sprintf("removed %d dish(es) no longer available today", len(lines)-len(pruned)))
	}
}

// Add puts a dish in the cart with quantity 1. A dish whose day is not
// today is rejected without mutating anything. Re-adding an existing dish
// resets its quantity to 1.
func (c *Store) Add(d model.Dish) error {
	if !model.SameDay(d.Day, c.now().Weekday()) {
		return fmt.Errorf("%q is a %s dish: %w", d.Title, d.Day, errs.ErrWrongDay)
	}
	c.mutate(action{kind: actionAdd, line: model.LineFromDish(d)})
	return nil
}

// Remove deletes the line for id; absent ids are a no-op.
func (c *Store) Remove(id string) {
	c.mutate(action{kind: actionRemove, id: id})
}

// UpdateQuantity sets the quantity for id. Zero or negative removes the
// line.
func (c *Store) UpdateQuantity(id string, qty int) {
	c.mutate(action{kind: actionSetQuantity, id: id, qty: qty})
}

// Clear empties the cart and removes the persisted copy entirely.
func (c *Store) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
	if err := c.storage.Delete(storage.KeyCart); err != nil {
		c.log.Warn("remove persisted cart", zap.Error(err))
	}
}

// Lines returns a copy of the current lines in insertion/update order.
func (c *Store) Lines() []model.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.CartLine(nil), c.lines...)
}

// Total is recomputed from the current lines on every call.
func (c *Store) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return total(c.lines)
}

// Checkout validates the cart and, if it passes, runs submit while holding
// the in-progress flag so a second attempt fails fast. On success the cart
// is cleared; on failure the lines stay for a retry.
func (c *Store) Checkout(ctx context.Context, submit SubmitFunc) error {
	c.mu.Lock()
	switch {
	case c.tokens.Token() == "":
		c.mu.Unlock()
		return errs.ErrNotAuthenticated
	case len(c.lines) == 0:
		c.mu.Unlock()
		return errs.ErrEmptyCart
	case staleCount(c.lines, c.now().Weekday()) > 0:
		c.mu.Unlock()
		return errs.ErrStaleItems
	case c.checkingOut:
		c.mu.Unlock()
		return errs.ErrCheckoutInProgress
	}
	c.checkingOut = true
	lines := append([]model.CartLine(nil), c.lines...)
	sum := total(c.lines)
	c.mu.Unlock()

	err := submit(ctx, lines, sum)

	c.mu.Lock()
	c.checkingOut = false
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("submit order: %w", err)
	}
	c.Clear()
	return nil
}

// CheckingOut reports whether a checkout submission is in flight.
func (c *Store) CheckingOut() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkingOut
}

// Notices delivers non-blocking user-facing messages (e.g. the hydrate
// prune). A slow reader loses notices rather than stalling mutations.
func (c *Store) Notices() <-chan string { return c.notices }

func (c *Store) mutate(a action) {
	c.mu.Lock()
	next, changed := apply(c.lines, a)
	c.lines = next
	c.mu.Unlock()
	if changed {
		c.persist(next)
	}
}

func (c *Store) persist(lines []model.CartLine) {
	b, err := json.Marshal(lines)
	if err != nil {
		c.log.Warn("encode cart", zap.Error(err))
		return
	}
	if err := c.storage.Set(storage.KeyCart, b); err != nil {
		c.log.Warn("persist cart", zap.Error(err))
	}
}

func (c *Store) notify(msg string) {
	select {
	case c.notices <- msg:
	default:
	}
}
