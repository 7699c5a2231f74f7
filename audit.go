package backoffice

import (
	"context"
	"time"
)

// Audit event types emitted by the engine.
const (
	AuditLogin               = "login"
	AuditLoginDevFallback    = "login.dev_fallback"
	AuditLogout              = "logout"
	AuditSessionRevalidated  = "session.revalidated"
	AuditStaffCreate         = "staff.create"
	AuditStaffCreateRollback = "staff.create.rollback"
	AuditStaffRollbackFailed = "staff.create.rollback_failed"
	AuditStaffDeactivate     = "staff.deactivate"
	AuditUpload              = "media.upload"
	AuditContentWrite        = "content.write"
	AuditContentDelete       = "content.delete"
)

// emitAudit stamps and forwards an event to the dispatcher. Safe to
// call on an engine built without auditing.
func (e *Engine) emitAudit(ctx context.Context, ev AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	ev.Timestamp = time.Now()
	if ev.IP == "" {
		ev.IP = clientIPFromContext(ctx)
	}
	e.audit.Emit(ctx, ev)
}

// AuditDropped reports how many audit events were dropped due to
// dispatcher backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}
