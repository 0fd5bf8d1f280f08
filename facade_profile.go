package goAuthBridge

import (
	"context"
	"errors"
	"time"
)

// UpdateUserProfile writes exactly the fields present in patch to the row
// id. It returns false when the id is empty, the row does not exist or the
// store fails; it never panics on store misbehavior. An empty patch is a
// successful no-op.
func (f *Facade) UpdateUserProfile(ctx context.Context, id string, patch ProfileFields) (ok bool) {
	if f == nil || f.store == nil || id == "" {
		return false
	}
	if patch.Empty() {
		return true
	}

	defer func() {
		if rec := recover(); rec != nil {
			f.logf("profile update for %s recovered: %v", id, rec)
			ok = false
		}
		if ok {
			f.metricInc(MetricProfileUpdateSuccess)
		} else {
			f.metricInc(MetricProfileUpdateFailure)
		}
	}()

	if err := f.store.UpdateByID(ctx, id, patch); err != nil {
		err = &StoreError{Op: "update", ID: id, Err: err}
		f.logf("%v", err)
		f.emitAudit(ctx, auditEventProfileUpdateFailure, false, id, "", "", err, withColumns(patch))
		return false
	}

	f.emitAudit(ctx, auditEventProfileUpdateSuccess, true, id, "", "", nil, withColumns(patch))
	return true
}

func withColumns(fields ProfileFields) func(*AuditEvent) {
	return func(e *AuditEvent) {
		for _, c := range fields.Columns() {
			e.Columns = append(e.Columns, c.Name)
		}
	}
}

// IsAdmin reports whether the stored row for id has role ADMIN. Any lookup
// failure or missing row yields false.
func (f *Facade) IsAdmin(ctx context.Context, id string) (admin bool) {
	if f == nil {
		return false
	}
	defer func() {
		if rec := recover(); rec != nil {
			f.logf("admin check for %s recovered: %v", id, rec)
			admin = false
		}
	}()

	rec, err := f.reconciler.lookup(ctx, id)
	if err != nil {
		if !isNotFound(err) {
			f.logf("admin check for %s: %v", id, err)
		}
		return false
	}
	return rec.Role != nil && *rec.Role == RoleAdmin
}

// GetUserByID maps the stored row for id without identity claims: absent
// columns keep their static defaults (role MEMBER, active) or stay empty.
// It returns nil when the row is missing or the lookup fails.
func (f *Facade) GetUserByID(ctx context.Context, id string) (user *LocalUser) {
	if f == nil {
		return nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			f.logf("user lookup for %s recovered: %v", id, rec)
			user = nil
		}
	}()

	rec, err := f.reconciler.lookup(ctx, id)
	if err != nil {
		if !isNotFound(err) {
			f.logf("user lookup for %s: %v", id, err)
			f.metricInc(MetricProfileLookupFailure)
		}
		return nil
	}
	return userFromRecord(nil, rec, time.Time{})
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrProfileNotFound)
}
