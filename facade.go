package goAuthBridge

import (
	"context"
	"log"
	"time"

	internalaudit "github.com/MrEthical07/goAuthBridge/internal/audit"
)

// Facade forwards authentication calls to an [IdentityProvider] and keeps
// the companion profile rows in a [ProfileStore] in step with them.
//
// A Facade is built once through [Builder.Build] and is safe for
// concurrent use as long as its provider and store are.
type Facade struct {
	config     Config
	provider   IdentityProvider
	store      ProfileStore
	reconciler *Reconciler
	audit      *internalaudit.Dispatcher
	metrics    *Metrics
	logger     *log.Logger
	now        func() time.Time
}

// Close stops the audit dispatcher after draining queued events.
// Subscriptions returned by OnAuthChange are owned by their callers.
func (f *Facade) Close() {
	if f == nil {
		return
	}
	f.audit.Close()
}

// AuditDropped returns the number of audit events dropped because the
// dispatcher buffer was full.
func (f *Facade) AuditDropped() uint64 {
	if f == nil {
		return 0
	}
	return f.audit.Dropped()
}

// MetricsSnapshot returns a copy of the facade's counters.
func (f *Facade) MetricsSnapshot() MetricsSnapshot {
	if f == nil {
		return (*Metrics)(nil).Snapshot()
	}
	return f.metrics.Snapshot()
}

// Reconciler exposes the reconciler used by the facade, for hosts that
// hold a session obtained elsewhere.
func (f *Facade) Reconciler() *Reconciler {
	if f == nil {
		return nil
	}
	return f.reconciler
}

// SignUp creates an account, writes its initial profile row and returns
// the reconciled user. The row gets displayName, or the local part of the
// email when displayName is empty.
func (f *Facade) SignUp(ctx context.Context, email, password, displayName string) (*LocalUser, error) {
	if f == nil || f.provider == nil {
		return nil, ErrFacadeNotReady
	}

	var metadata map[string]any
	if displayName != "" {
		metadata = map[string]any{metadataFullName: displayName}
	}

	identity, _, err := f.provider.CreateAccount(ctx, email, password, metadata)
	if err == nil && identity == nil {
		err = &ProviderError{Op: "sign up", Message: ErrSignUpNoUser.Error(), Err: ErrSignUpNoUser}
	}
	if err != nil {
		err = providerError("sign up", err)
		f.metricInc(MetricSignUpFailure)
		f.emitAudit(ctx, auditEventSignUpFailure, false, "", email, "", err, nil)
		return nil, err
	}

	now := f.clock()
	profileEmail := firstNonEmpty(identity.Email, email)
	name := firstNonEmpty(displayName, emailLocalPart(profileEmail))
	f.upsertProfile(ctx, identity.ID, ProfileFields{
		Email:     String(profileEmail),
		Name:      String(name),
		Role:      RolePtr(RoleMember),
		IsActive:  Bool(true),
		CreatedAt: Time(now),
		LastLogin: Time(now),
	})

	user := f.reconciler.ReconcileIdentity(ctx, identity)
	f.metricInc(MetricSignUpSuccess)
	f.emitAudit(ctx, auditEventSignUpSuccess, true, identity.ID, profileEmail, "", nil, nil)
	return user, nil
}

// SignIn authenticates with email and password, refreshes the profile's
// last_login and returns the reconciled user.
func (f *Facade) SignIn(ctx context.Context, email, password string) (*LocalUser, error) {
	if f == nil || f.provider == nil {
		return nil, ErrFacadeNotReady
	}

	session, err := f.provider.Authenticate(ctx, email, password)
	if err == nil && session == nil {
		err = &ProviderError{Op: "sign in", Message: "sign in returned no session"}
	}
	if err != nil {
		err = providerError("sign in", err)
		f.metricInc(MetricSignInFailure)
		f.emitAudit(ctx, auditEventSignInFailure, false, "", email, "", err, nil)
		return nil, err
	}

	if !f.config.Profile.SkipLastLoginTouch {
		f.touchLastLogin(ctx, session.User.ID)
	}

	user := f.reconciler.Reconcile(ctx, session)
	f.metricInc(MetricSignInSuccess)
	f.emitAudit(ctx, auditEventSignInSuccess, true, session.User.ID, user.Email, "", nil, nil)
	return user, nil
}

// SignInWithProvider starts a federated sign-in and returns the consent URL
// the host must redirect the browser to. An empty provider selects
// Config.Federated.DefaultProvider. No user is returned: the session
// arrives later through the redirect.
func (f *Facade) SignInWithProvider(ctx context.Context, provider string) (string, error) {
	if f == nil || f.provider == nil {
		return "", ErrFacadeNotReady
	}
	if provider == "" {
		provider = f.config.Federated.DefaultProvider
	}
	if provider == "" {
		provider = googleProvider
	}

	target, err := f.provider.FederatedSignInURL(ctx, provider, f.config.Federated.RedirectURL)
	if err != nil {
		err = providerError("federated sign in", err)
		f.metricInc(MetricFederatedSignInFailure)
		f.emitAudit(ctx, auditEventFederatedFailure, false, "", "", provider, err, nil)
		return "", err
	}

	f.metricInc(MetricFederatedSignInStarted)
	f.emitAudit(ctx, auditEventFederatedStarted, true, "", "", provider, nil, nil)
	return target, nil
}

// SignInWithGoogle is SignInWithProvider for "google".
func (f *Facade) SignInWithGoogle(ctx context.Context) (string, error) {
	return f.SignInWithProvider(ctx, googleProvider)
}

// CompleteFederatedSignIn trades the code from a federated redirect for a
// session, writes the profile fields the provider asserted and returns the
// reconciled user. The provider must implement [CodeExchanger].
func (f *Facade) CompleteFederatedSignIn(ctx context.Context, code string) (*LocalUser, error) {
	if f == nil || f.provider == nil {
		return nil, ErrFacadeNotReady
	}
	exchanger, ok := f.provider.(CodeExchanger)
	if !ok {
		return nil, ErrFederatedUnsupported
	}

	session, err := exchanger.ExchangeCode(ctx, code)
	if err == nil && session == nil {
		err = &ProviderError{Op: "exchange code", Message: "code exchange returned no session"}
	}
	if err != nil {
		err = providerError("exchange code", err)
		f.metricInc(MetricFederatedSignInFailure)
		f.emitAudit(ctx, auditEventFederatedFailure, false, "", "", "", err, nil)
		return nil, err
	}

	f.upsertProfile(ctx, session.User.ID, sessionProfileFields(session, f.clock()))
	user := f.reconciler.Reconcile(ctx, session)
	f.metricInc(MetricSignInSuccess)
	f.emitAudit(ctx, auditEventSignInSuccess, true, session.User.ID, user.Email, "federated", nil, nil)
	return user, nil
}

// SignOut terminates the current provider session.
func (f *Facade) SignOut(ctx context.Context) error {
	if f == nil || f.provider == nil {
		return ErrFacadeNotReady
	}
	if err := f.provider.TerminateSession(ctx); err != nil {
		err = providerError("sign out", err)
		f.metricInc(MetricSignOutFailure)
		f.emitAudit(ctx, auditEventSignOutFailure, false, "", "", "", err, nil)
		return err
	}
	f.metricInc(MetricSignOutSuccess)
	f.emitAudit(ctx, auditEventSignOutSuccess, true, "", "", "", nil, nil)
	return nil
}

// GetSession returns the provider's current session, or nil when nobody is
// signed in or the provider could not be reached.
func (f *Facade) GetSession(ctx context.Context) *Session {
	if f == nil || f.provider == nil {
		return nil
	}
	session, err := f.provider.CurrentSession(ctx)
	if err != nil {
		f.logf("current session: %v", err)
		return nil
	}
	return session
}

// GetCurrentUser returns the reconciled current user, or nil when nobody is
// signed in. It never writes to the profile store.
func (f *Facade) GetCurrentUser(ctx context.Context) *LocalUser {
	if f == nil || f.provider == nil {
		return nil
	}
	identity, err := f.provider.CurrentIdentity(ctx)
	if err != nil {
		f.logf("current identity: %v", err)
		return nil
	}
	return f.reconciler.ReconcileIdentity(ctx, identity)
}

// upsertProfile writes fields for id, merging on conflict. Failures are
// logged and counted; callers carry on.
func (f *Facade) upsertProfile(ctx context.Context, id string, fields ProfileFields) {
	if f.store == nil || id == "" {
		return
	}
	if err := f.store.Upsert(ctx, id, fields); err != nil {
		err = &StoreError{Op: "upsert", ID: id, Err: err}
		f.logf("%v", err)
		f.metricInc(MetricProfileUpsertFailure)
		f.emitAudit(ctx, auditEventProfileUpsertFailure, false, id, "", "", err, nil)
	}
}

func (f *Facade) touchLastLogin(ctx context.Context, id string) {
	if f.store == nil || id == "" {
		return
	}
	err := f.store.UpdateByID(ctx, id, ProfileFields{LastLogin: Time(f.clock())})
	if err != nil && !isNotFound(err) {
		f.logf("last login update for %s: %v", id, err)
	}
}

// sessionProfileFields are the columns refreshed from provider claims on
// every sign-in event. Name and photo are only written when the provider
// asserts them, so values edited through UpdateUserProfile survive.
func sessionProfileFields(s *Session, now time.Time) ProfileFields {
	fields := ProfileFields{LastLogin: Time(now)}
	if s.User.Email != "" {
		fields.Email = String(s.User.Email)
	}
	if name := metadataString(&s.User, metadataFullName); name != "" {
		fields.Name = String(name)
	}
	if photo := metadataString(&s.User, metadataAvatarURL); photo != "" {
		fields.PhotoURL = String(photo)
	}
	return fields
}

func (f *Facade) clock() time.Time {
	if f.now == nil {
		return time.Now()
	}
	return f.now()
}

func (f *Facade) logf(format string, args ...any) {
	if f.logger == nil {
		return
	}
	f.logger.Printf("goAuthBridge: "+format, args...)
}

func (f *Facade) metricInc(id MetricID) {
	f.metrics.Inc(id)
}
