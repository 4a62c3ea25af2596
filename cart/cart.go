// Package cart maintains the buyer's shopping cart as a local mirror of the
// remote cart endpoint. The server is authoritative: every mutation is a
// network round-trip whose response replaces the local line list wholesale.
package cart

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/HarshitJain2103/Karigar-Mart-sub001/money"
)

const defaultCurrency = "INR"

// ProductRef carries the product fields the cart needs to price and
// validate a line.
type ProductRef struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Price         money.Money `json:"price"`
	StockQuantity int         `json:"stockQuantity"`
	Image         string      `json:"image"`
}

// Line is one product-and-quantity pairing inside the cart. Quantity is
// always positive; a line whose quantity would drop to zero is removed by
// the server, never retained.
type Line struct {
	Product  ProductRef `json:"product"`
	Quantity int        `json:"quantity"`
}

// Syncer is the remote cart endpoint. Each mutation returns the full
// authoritative line list after the change.
type Syncer interface {
	UpsertItem(ctx context.Context, token, productID string, quantity int) ([]Line, error)
	RemoveItem(ctx context.Context, token, productID string) ([]Line, error)
	Empty(ctx context.Context, token string) ([]Line, error)
}

// TokenSource yields the session's bearer token, or "" when the buyer is
// not signed in.
type TokenSource func() string

// Store mirrors one buyer's cart. Mutations that fail — no token, network
// error, non-2xx — are logged and leave the mirror untouched; there is no
// optimistic update and no retry. Responses carry a sequence number so that
// a stale response never overwrites the effect of a later mutation.
type Store struct {
	syncer Syncer
	token  TokenSource
	log    logrus.FieldLogger

	seq atomic.Uint64

	mu      sync.Mutex
	lines   []Line
	applied uint64
}

// NewStore returns an empty Store synchronized through syncer.
func NewStore(syncer Syncer, token TokenSource, log logrus.FieldLogger) *Store {
	return &Store{syncer: syncer, token: token, log: log}
}

// SetTokenSource swaps the token source, e.g. after the buyer signs in.
func (s *Store) SetTokenSource(token TokenSource) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *Store) currentToken() string {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == nil {
		return ""
	}
	return token()
}

// AddOrUpdate sends the desired absolute quantity for the product to the
// remote endpoint and replaces the mirror with the server's response.
func (s *Store) AddOrUpdate(ctx context.Context, productID string, quantity int) {
	token := s.currentToken()
	if token == "" {
		s.log.WithField("product", productID).Debug("cart mutation skipped: not signed in")
		return
	}
	seq := s.seq.Add(1)
	lines, err := s.syncer.UpsertItem(ctx, token, productID, quantity)
	if err != nil {
		s.log.WithField("product", productID).WithField("error", err).Warn("cart upsert failed")
		return
	}
	s.apply(seq, lines)
}

// SetQuantity is AddOrUpdate restricted to quantities of at least one.
// Anything lower is rejected without a network call.
func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int) {
	if quantity < 1 {
		s.log.WithField("product", productID).WithField("quantity", quantity).
			Debug("rejecting cart quantity below one")
		return
	}
	s.AddOrUpdate(ctx, productID, quantity)
}

// Remove deletes the product's line from the remote cart.
func (s *Store) Remove(ctx context.Context, productID string) {
	token := s.currentToken()
	if token == "" {
		s.log.WithField("product", productID).Debug("cart mutation skipped: not signed in")
		return
	}
	seq := s.seq.Add(1)
	lines, err := s.syncer.RemoveItem(ctx, token, productID)
	if err != nil {
		s.log.WithField("product", productID).WithField("error", err).Warn("cart remove failed")
		return
	}
	s.apply(seq, lines)
}

// Clear empties the remote cart.
func (s *Store) Clear(ctx context.Context) {
	token := s.currentToken()
	if token == "" {
		s.log.Debug("cart mutation skipped: not signed in")
		return
	}
	seq := s.seq.Add(1)
	lines, err := s.syncer.Empty(ctx, token)
	if err != nil {
		s.log.WithField("error", err).Warn("cart clear failed")
		return
	}
	s.apply(seq, lines)
}

// Replace installs a server-provided snapshot, e.g. from an initial cart
// fetch on session start. It participates in the same sequencing as the
// mutations so it cannot clobber a later change.
func (s *Store) Replace(lines []Line) {
	s.apply(s.seq.Add(1), lines)
}

// apply installs the response for seq unless a later response has already
// been applied. Two in-flight mutations may complete out of order; the one
// issued last always wins.
func (s *Store) apply(seq uint64, lines []Line) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		s.log.WithField("seq", seq).WithField("applied", s.applied).
			Debug("discarding stale cart response")
		return
	}
	s.applied = seq
	s.lines = lines
}

// Lines returns a copy of the last-synchronized snapshot.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Size returns the total number of units across all lines.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Subtotal prices the full cart, oversold lines included.
func (s *Store) Subtotal() money.Money {
	return Subtotal(s.Lines())
}
