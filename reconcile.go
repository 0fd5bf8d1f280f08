package goAuthBridge

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
)

const (
	metadataFullName  = "full_name"
	metadataAvatarURL = "avatar_url"
)

// Reconciler merges identity-provider claims with the stored profile row
// into a [LocalUser]. It only reads from the store.
//
// For a non-nil identity the result is never nil: lookup failures, missing
// rows and panics inside the store all degrade to a user built from the
// identity claims alone.
type Reconciler struct {
	store   ProfileStore
	now     func() time.Time
	logger  *log.Logger
	metrics *Metrics
}

// NewReconciler creates a Reconciler reading from store. A nil logger
// falls back to [log.Default].
func NewReconciler(store ProfileStore, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.Default()
	}
	return &Reconciler{
		store:  store,
		now:    time.Now,
		logger: logger,
	}
}

// Reconcile returns nil for a nil session and a non-nil user otherwise.
func (r *Reconciler) Reconcile(ctx context.Context, s *Session) *LocalUser {
	if s == nil {
		return nil
	}
	return r.ReconcileIdentity(ctx, &s.User)
}

// ReconcileIdentity is Reconcile for bare identity claims.
func (r *Reconciler) ReconcileIdentity(ctx context.Context, id *Identity) (user *LocalUser) {
	if id == nil {
		return nil
	}
	now := r.clock()
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.logf("reconcile %s recovered: %v", id.ID, rec)
			r.metricInc(MetricProfileFallback)
			user = userFromRecord(id, nil, now)
		}
		if r != nil {
			r.metrics.Observe(MetricReconcileLatency, time.Since(start))
		}
	}()

	rec, err := r.lookup(ctx, id.ID)
	if err != nil {
		if !errors.Is(err, ErrProfileNotFound) {
			r.logf("profile lookup for %s failed: %v", id.ID, err)
			r.metricInc(MetricProfileLookupFailure)
		}
		r.metricInc(MetricProfileFallback)
		return userFromRecord(id, nil, now)
	}
	return userFromRecord(id, rec, now)
}

// lookup distinguishes a hit from "absent" and from a store failure; the
// caller decides whether to fail open.
func (r *Reconciler) lookup(ctx context.Context, id string) (*ProfileRecord, error) {
	if r == nil || r.store == nil {
		return nil, ErrProfileStoreRequired
	}
	if id == "" {
		return nil, ErrInvalidProfileID
	}
	rec, err := r.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, err
		}
		return nil, &StoreError{Op: "get", ID: id, Err: err}
	}
	if rec == nil {
		return nil, ErrProfileNotFound
	}
	return rec, nil
}

func (r *Reconciler) clock() time.Time {
	if r == nil || r.now == nil {
		return time.Now()
	}
	return r.now()
}

func (r *Reconciler) logf(format string, args ...any) {
	if r == nil || r.logger == nil {
		return
	}
	r.logger.Printf("goAuthBridge: "+format, args...)
}

func (r *Reconciler) metricInc(id MetricID) {
	if r == nil {
		return
	}
	r.metrics.Inc(id)
}

// userFromRecord applies the per-field resolution chains. id may be nil
// (no session available), in which case only stored values and static
// defaults are used and lastLogin is not defaulted.
func userFromRecord(id *Identity, rec *ProfileRecord, now time.Time) *LocalUser {
	var fields ProfileFields
	if rec != nil {
		fields = rec.ProfileFields
	}
	u := &LocalUser{
		Email:           resolveEmail(fields, id),
		Name:            resolveName(fields, id),
		PhotoURL:        resolvePhotoURL(fields, id),
		Role:            resolveRole(fields),
		IsActive:        resolveIsActive(fields),
		SubscriptionEnd: derefTime(fields.SubscriptionEnd),
		CreatedAt:       resolveCreatedAt(fields, id),
	}
	switch {
	case id != nil:
		u.ID = id.ID
		u.LastLogin = resolveLastLogin(fields, now)
	case rec != nil:
		u.ID = rec.ID
		u.LastLogin = derefTime(fields.LastLogin)
	}
	return u
}

func resolveEmail(f ProfileFields, id *Identity) string {
	return firstNonEmpty(deref(f.Email), identityEmail(id))
}

func resolveName(f ProfileFields, id *Identity) string {
	return firstNonEmpty(
		deref(f.Name),
		metadataString(id, metadataFullName),
		emailLocalPart(identityEmail(id)),
	)
}

func resolvePhotoURL(f ProfileFields, id *Identity) string {
	return firstNonEmpty(deref(f.PhotoURL), metadataString(id, metadataAvatarURL))
}

func resolveRole(f ProfileFields) Role {
	if f.Role != nil {
		if role, ok := ParseRole(string(*f.Role)); ok {
			return role
		}
	}
	return RoleMember
}

func resolveIsActive(f ProfileFields) bool {
	if f.IsActive != nil {
		return *f.IsActive
	}
	return true
}

func resolveCreatedAt(f ProfileFields, id *Identity) time.Time {
	if f.CreatedAt != nil && !f.CreatedAt.IsZero() {
		return *f.CreatedAt
	}
	if id != nil {
		return id.CreatedAt
	}
	return time.Time{}
}

func resolveLastLogin(f ProfileFields, now time.Time) time.Time {
	if f.LastLogin != nil && !f.LastLogin.IsZero() {
		return *f.LastLogin
	}
	return now
}

// emailLocalPart returns the part before '@', or "" for an empty address.
func emailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

func identityEmail(id *Identity) string {
	if id == nil {
		return ""
	}
	return id.Email
}

func metadataString(id *Identity, key string) string {
	if id == nil || id.Metadata == nil {
		return ""
	}
	s, _ := id.Metadata[key].(string)
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
