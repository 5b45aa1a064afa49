package http

import (
	"context"
	"sync"
	"time"

	"github.com/aq2208/gpos-checkout/internal/adapter/notify"
	domain "github.com/aq2208/gpos-checkout/internal/entity"
	"github.com/aq2208/gpos-checkout/internal/usecase"
	"github.com/google/uuid"
)

// checkoutSession is one open checkout. mu serializes every operation on it.
type checkoutSession struct {
	id     string
	shopID string
	userID string

	mu       sync.Mutex
	ctrl     *usecase.CheckoutController
	cart     *usecase.StoredCart
	notices  *notify.Buffer
	lastUsed time.Time
	// set by the completion callback
	completed *domain.Sale
}

// SessionRegistry holds open checkouts in process memory.
type SessionRegistry struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*checkoutSession
}

func NewSessionRegistry(ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{ttl: ttl, now: time.Now, sessions: map[string]*checkoutSession{}}
}

func (r *SessionRegistry) newID() string { return uuid.NewString() }

func (r *SessionRegistry) add(s *checkoutSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.lastUsed = r.now()
	r.sessions[s.id] = s
}

// get returns the session only to its owner; anyone else sees errSessionNotFound.
func (r *SessionRegistry) get(id, shopID, userID string) (*checkoutSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.shopID != shopID || s.userID != userID {
		return nil, errSessionNotFound
	}
	s.lastUsed = r.now()
	return s, nil
}

func (r *SessionRegistry) remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep cancels and drops sessions idle for longer than the TTL and returns how many went.
func (r *SessionRegistry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)
	var expired []*checkoutSession
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.lastUsed.Before(cutoff) {
			delete(r.sessions, id)
			expired = append(expired, s)
		}
	}
	r.mu.Unlock()

	// handlers take s.mu before r.mu, so cancel only after releasing the registry
	for _, s := range expired {
		s.mu.Lock()
		if s.ctrl != nil && s.ctrl.IsActive() {
			s.ctrl.CancelCheckout()
		}
		s.mu.Unlock()
	}
	return len(expired)
}

// Run sweeps on every tick until ctx is done.
func (r *SessionRegistry) Run(ctx context.Context, every time.Duration, onSweep func(n int)) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}
