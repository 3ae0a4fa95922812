package popup

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yolodolo42/ledgers/internal/errs"
	"github.com/yolodolo42/ledgers/internal/logging"
)

// Session owns the single popup surface. At most one Lease exists at a time;
// a second Acquire fails instead of queueing.
type Session struct {
	mu      sync.Mutex
	surface Surface
	lease   *Lease
	logger  logging.Logger
}

func NewSession(surface Surface, logger logging.Logger) *Session {
	return &Session{
		surface: surface,
		logger:  logging.OrNoop(logger),
	}
}

// Attach replaces the surface used by subsequent Show calls.
func (s *Session) Attach(surface Surface) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface = surface
}

// Busy reports whether a lease is outstanding.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lease != nil
}

// Acquire takes the popup for one operation. Release the lease when done.
func (s *Session) Acquire() (*Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lease != nil {
		return nil, errs.Precondition(errs.CodePopupInFlight, "popup already in progress")
	}
	s.lease = &Lease{session: s, id: uuid.NewString()}
	s.logger.Debug("popup acquired", map[string]any{"lease": s.lease.id})
	return s.lease, nil
}

// Deliver routes a message from the popup page to the waiting lease. Messages
// that arrive while nothing is shown are dropped.
func (s *Session) Deliver(msg Message) {
	if !msg.IsTerminal() {
		s.logger.Debug("ignoring popup message", map[string]any{"event": string(msg.Kind)})
		return
	}

	s.mu.Lock()
	lease := s.lease
	surface := s.surface
	var done chan outcome
	if lease != nil {
		done = lease.disarm()
	}
	s.mu.Unlock()

	if done == nil {
		s.logger.Warn("popup message with no popup shown", map[string]any{"event": string(msg.Kind)})
		return
	}

	res, err := msg.outcome()
	done <- outcome{result: res, err: err}

	if surface != nil {
		surface.Hide()
	}
}

func (s *Session) release(l *Lease) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lease == l {
		s.lease = nil
		s.logger.Debug("popup released", map[string]any{"lease": l.id})
	}
}

type outcome struct {
	result Result
	err    error
}

// Lease is exclusive use of the popup surface. Each Show arms the lease for
// exactly one terminal message, collected with Await.
type Lease struct {
	session *Session
	id      string

	mu       sync.Mutex
	done     chan outcome
	armed    bool
	released bool
}

// Show displays url and arms the lease.
func (l *Lease) Show(ctx context.Context, url string, width, height int) error {
	l.mu.Lock()
	if l.released {
		l.mu.Unlock()
		return errs.Precondition(errs.CodePopupRejected, "popup lease already released")
	}
	l.done = make(chan outcome, 1)
	l.armed = true
	l.mu.Unlock()

	l.session.mu.Lock()
	surface := l.session.surface
	l.session.mu.Unlock()

	if surface == nil {
		l.reset()
		return errs.Precondition(errs.CodePopupRejected, "no popup surface attached")
	}

	l.session.logger.Debug("showing popup", map[string]any{"lease": l.id, "url": url, "width": width, "height": height})
	if err := surface.Show(ctx, url, width, height); err != nil {
		l.reset()
		return err
	}
	return nil
}

// Await blocks until the shown page settles or ctx ends.
func (l *Lease) Await(ctx context.Context) (Result, error) {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()

	if done == nil {
		return Result{}, errs.Precondition(errs.CodePopupRejected, "popup not shown")
	}

	select {
	case o := <-done:
		l.mu.Lock()
		if l.done == done {
			l.done = nil
		}
		l.mu.Unlock()
		return o.result, o.err
	case <-ctx.Done():
		l.reset()
		l.hide()
		return Result{}, ctx.Err()
	}
}

// Hide takes the page down without waiting for it and disarms the lease.
func (l *Lease) Hide() {
	l.reset()
	l.hide()
}

// ID identifies the lease in logs.
func (l *Lease) ID() string {
	return l.id
}

// Release gives the surface back. Safe to call more than once.
func (l *Lease) Release() {
	l.mu.Lock()
	if l.released {
		l.mu.Unlock()
		return
	}
	l.released = true
	l.armed = false
	l.done = nil
	l.mu.Unlock()

	l.session.release(l)
}

// disarm stops the lease accepting messages and returns the armed channel,
// or nil when nothing is awaiting a message.
func (l *Lease) disarm() chan outcome {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.armed {
		return nil
	}
	l.armed = false
	return l.done
}

func (l *Lease) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.armed = false
	l.done = nil
}

func (l *Lease) hide() {
	l.session.mu.Lock()
	surface := l.session.surface
	l.session.mu.Unlock()
	if surface != nil {
		surface.Hide()
	}
}
