package goAuthBridge

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventSignUpSuccess        = "sign_up_success"
	auditEventSignUpFailure        = "sign_up_failure"
	auditEventSignInSuccess        = "sign_in_success"
	auditEventSignInFailure        = "sign_in_failure"
	auditEventFederatedStarted     = "federated_sign_in_started"
	auditEventFederatedFailure     = "federated_sign_in_failure"
	auditEventSignOutSuccess       = "sign_out_success"
	auditEventSignOutFailure       = "sign_out_failure"
	auditEventProfileUpsertFailure = "profile_upsert_failure"
	auditEventProfileUpdateSuccess = "profile_update_success"
	auditEventProfileUpdateFailure = "profile_update_failure"
	auditEventAuthEventReceived    = "auth_event_received"
)

// AuditErrorCode is the coarse error class recorded on failed audit events.
// Provider messages are never copied into audit records.
type AuditErrorCode string

const (
	auditErrProviderRejected AuditErrorCode = "provider_rejected"
	auditErrNoUser           AuditErrorCode = "no_user"
	auditErrProfileNotFound  AuditErrorCode = "profile_not_found"
	auditErrStoreUnavailable AuditErrorCode = "store_unavailable"
	auditErrInternal         AuditErrorCode = "internal_error"
)

func (f *Facade) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	email string,
	provider string,
	err error,
	decorate func(*AuditEvent),
) {
	if f == nil || f.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		Provider:  provider,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if decorate != nil {
		decorate(&event)
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	f.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	var storeErr *StoreError
	var providerErr *ProviderError
	switch {
	case errors.Is(err, ErrSignUpNoUser):
		return auditErrNoUser
	case errors.Is(err, ErrProfileNotFound):
		return auditErrProfileNotFound
	case errors.As(err, &storeErr):
		return auditErrStoreUnavailable
	case errors.As(err, &providerErr):
		return auditErrProviderRejected
	default:
		return auditErrInternal
	}
}
