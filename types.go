package backoffice

import (
	"io"

	"github.com/omjyotish/backoffice/internal/audit"
	"github.com/omjyotish/backoffice/internal/content"
	"github.com/omjyotish/backoffice/internal/directory"
	"github.com/omjyotish/backoffice/session"
	"github.com/omjyotish/backoffice/storage"
)

// AdminSession is the resolved admin identity held in the session cache.
// A session is only treated as authenticated for admin purposes when its
// permission set intersects [permission.PrivilegedTags]; the engine
// enforces that on every read.
type AdminSession = session.Session

// StaffRecord is the directory row identifying a human admin: identity
// reference, active flag, and role reference.
type StaffRecord = directory.StaffRecord

// Role is a named bundle of capability tags shared by many staff records.
type Role = directory.Role

// ContentRow is one row of a site content collection (services, bookings,
// testimonials, and so on). Payloads are opaque JSON.
type ContentRow = content.Row

// StoredObject describes an object written to the media store.
type StoredObject = storage.Object

// LoginResult is returned by [Engine.Login] on success.
type LoginResult struct {
	SessionID   string
	AccessToken string
	Session     *AdminSession
}

// CreateStaffInput is the input for [Engine.CreateStaff]. RoleID is
// optional; when empty the configured default role is used.
type CreateStaffInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	RoleID    string
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = audit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = audit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = audit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = audit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer], one object per line.
type JSONWriterSink = audit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}
