package goAuthBridge

import (
	"context"
	"sync"
	"sync/atomic"
)

// Subscription is the handle returned by [Facade.OnAuthChange].
//
// Work for one subscription runs on its own goroutine in arrival order:
// first the initial current-user query, then every provider event. The
// active flag is checked before each callback, so no callback starts
// after Unsubscribe has returned.
type Subscription struct {
	callback  func(*LocalUser)
	onDeliver func()

	active atomic.Bool
	once   sync.Once
	done   chan struct{}
	wake   chan struct{}

	mu          sync.Mutex
	queue       []func()
	unsubscribe func()
}

func newSubscription(callback func(*LocalUser)) *Subscription {
	s := &Subscription{
		callback: callback,
		done:     make(chan struct{}),
		wake:     make(chan struct{}, 1),
	}
	s.active.Store(true)
	return s
}

// Active reports whether Unsubscribe has not been called yet.
func (s *Subscription) Active() bool {
	return s != nil && s.active.Load()
}

// Unsubscribe stops all future callbacks and deregisters from the
// provider. It is idempotent. Lookups already running are not cancelled,
// but their results are discarded.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.active.Store(false)
		close(s.done)

		s.mu.Lock()
		unsubscribe := s.unsubscribe
		s.unsubscribe = nil
		s.queue = nil
		s.mu.Unlock()

		if unsubscribe != nil {
			unsubscribe()
		}
	})
}

func (s *Subscription) setUnsubscribe(fn func()) {
	s.mu.Lock()
	if s.active.Load() {
		s.unsubscribe = fn
		fn = nil
	}
	s.mu.Unlock()
	// Unsubscribed while registering with the provider.
	if fn != nil {
		fn()
	}
}

func (s *Subscription) enqueue(job func()) {
	if !s.active.Load() {
		return
	}
	s.mu.Lock()
	s.queue = append(s.queue, job)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) next() (func(), bool) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			job := s.queue[0]
			s.queue[0] = nil
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return job, true
		}
		s.mu.Unlock()

		select {
		case <-s.wake:
		case <-s.done:
			return nil, false
		}
	}
}

func (s *Subscription) run() {
	for {
		job, ok := s.next()
		if !ok {
			return
		}
		if !s.active.Load() {
			return
		}
		job()
	}
}

func (s *Subscription) deliver(user *LocalUser) {
	if !s.active.Load() {
		return
	}
	s.callback(user)
	if s.onDeliver != nil {
		s.onDeliver()
	}
}

// OnAuthChange calls callback once with the current user, then again for
// every provider state transition until the returned handle is
// unsubscribed:
//
//   - SIGNED_IN and TOKEN_REFRESHED with a session upsert the profile row
//     from the session claims and deliver the reconciled user.
//   - SIGNED_OUT delivers nil.
//   - every other event is ignored.
//
// Every received event is audited as auth_event_received.
//
// Callbacks run on a goroutine owned by the subscription, never on the
// caller's. Cancelling ctx does not stop the subscription; use Unsubscribe.
func (f *Facade) OnAuthChange(ctx context.Context, callback func(*LocalUser)) *Subscription {
	sub := newSubscription(callback)
	if f == nil || f.provider == nil || callback == nil {
		sub.Unsubscribe()
		return sub
	}
	sub.onDeliver = func() { f.metricInc(MetricAuthCallbackDelivered) }

	bg := context.WithoutCancel(ctx)
	sub.enqueue(func() {
		sub.deliver(f.GetCurrentUser(bg))
	})

	go sub.run()

	sub.setUnsubscribe(f.provider.Subscribe(func(event SessionEvent) {
		f.metricInc(MetricAuthEventReceived)
		sub.enqueue(func() {
			f.handleSessionEvent(bg, sub, event)
		})
	}))

	return sub
}

func (f *Facade) handleSessionEvent(ctx context.Context, sub *Subscription, event SessionEvent) {
	var userID, email string
	if event.Session != nil {
		userID, email = event.Session.User.ID, event.Session.User.Email
	}
	f.emitAudit(ctx, auditEventAuthEventReceived, true, userID, email, "", nil, func(e *AuditEvent) {
		e.SessionEvent = string(event.Kind)
	})

	switch event.Kind {
	case EventSignedIn, EventTokenRefreshed:
		if event.Session == nil {
			return
		}
		if !f.config.Profile.SkipUpsertOnAuthEvent {
			f.upsertProfile(ctx, event.Session.User.ID, sessionProfileFields(event.Session, f.clock()))
		}
		sub.deliver(f.reconciler.Reconcile(ctx, event.Session))
	case EventSignedOut:
		sub.deliver(nil)
	}
}
