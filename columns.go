package goAuthBridge

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Wire names of the profile columns.
const (
	ColumnID              = "id"
	ColumnEmail           = "email"
	ColumnName            = "name"
	ColumnPhotoURL        = "photo_url"
	ColumnRole            = "role"
	ColumnIsActive        = "is_active"
	ColumnSubscriptionEnd = "subscription_end"
	ColumnCreatedAt       = "created_at"
	ColumnLastLogin       = "last_login"
)

// ProfileColumns lists every non-key column in wire order.
var ProfileColumns = []string{
	ColumnEmail,
	ColumnName,
	ColumnPhotoURL,
	ColumnRole,
	ColumnIsActive,
	ColumnSubscriptionEnd,
	ColumnCreatedAt,
	ColumnLastLogin,
}

// ProfileFields is a partial profile row. A nil pointer means "not present":
// it is neither written by a store nor used during reconciliation.
type ProfileFields struct {
	Email           *string
	Name            *string
	PhotoURL        *string
	Role            *Role
	IsActive        *bool
	SubscriptionEnd *time.Time
	CreatedAt       *time.Time
	LastLogin       *time.Time
}

// ProfileRecord is a stored profile row.
type ProfileRecord struct {
	ID string
	ProfileFields
}

// Column is one present field with its wire name. Value is a string, bool
// or time.Time.
type Column struct {
	Name  string
	Value any
}

// Empty reports whether no field is present.
func (f ProfileFields) Empty() bool {
	return len(f.Columns()) == 0
}

// Columns returns the present fields in wire order.
func (f ProfileFields) Columns() []Column {
	cols := make([]Column, 0, len(ProfileColumns))
	if f.Email != nil {
		cols = append(cols, Column{Name: ColumnEmail, Value: *f.Email})
	}
	if f.Name != nil {
		cols = append(cols, Column{Name: ColumnName, Value: *f.Name})
	}
	if f.PhotoURL != nil {
		cols = append(cols, Column{Name: ColumnPhotoURL, Value: *f.PhotoURL})
	}
	if f.Role != nil {
		cols = append(cols, Column{Name: ColumnRole, Value: string(*f.Role)})
	}
	if f.IsActive != nil {
		cols = append(cols, Column{Name: ColumnIsActive, Value: *f.IsActive})
	}
	if f.SubscriptionEnd != nil {
		cols = append(cols, Column{Name: ColumnSubscriptionEnd, Value: *f.SubscriptionEnd})
	}
	if f.CreatedAt != nil {
		cols = append(cols, Column{Name: ColumnCreatedAt, Value: *f.CreatedAt})
	}
	if f.LastLogin != nil {
		cols = append(cols, Column{Name: ColumnLastLogin, Value: *f.LastLogin})
	}
	return cols
}

// FormatColumnValue renders a column value in its stored string form.
// Timestamps use RFC 3339 with nanoseconds in UTC.
func FormatColumnValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(val)
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// ParseTimestamp parses a stored timestamp column.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrInvalidProfileColumn, s)
}

// DecodeProfileColumns builds a record from stored string columns keyed by
// wire name. Missing keys stay absent; unknown keys are ignored.
func DecodeProfileColumns(id string, cols map[string]string) (*ProfileRecord, error) {
	rec := &ProfileRecord{ID: id}
	if v, ok := cols[ColumnEmail]; ok {
		rec.Email = &v
	}
	if v, ok := cols[ColumnName]; ok {
		rec.Name = &v
	}
	if v, ok := cols[ColumnPhotoURL]; ok {
		rec.PhotoURL = &v
	}
	if v, ok := cols[ColumnRole]; ok {
		role := Role(v)
		rec.Role = &role
	}
	if v, ok := cols[ColumnIsActive]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidProfileColumn, ColumnIsActive, v)
		}
		rec.IsActive = &b
	}
	for _, tc := range []struct {
		name string
		dst  **time.Time
	}{
		{ColumnSubscriptionEnd, &rec.SubscriptionEnd},
		{ColumnCreatedAt, &rec.CreatedAt},
		{ColumnLastLogin, &rec.LastLogin},
	} {
		v, ok := cols[tc.name]
		if !ok || v == "" {
			continue
		}
		t, err := ParseTimestamp(v)
		if err != nil {
			return nil, err
		}
		*tc.dst = &t
	}
	return rec, nil
}

// String, Bool and Time return pointers for building [ProfileFields] literals.
func String(s string) *string { return &s }

func Bool(b bool) *bool { return &b }

func Time(t time.Time) *time.Time { return &t }

// RolePtr returns a pointer to r.
func RolePtr(r Role) *Role { return &r }
