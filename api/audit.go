package api

import (
	"log/slog"
	"net/http"
	"time"
)

// AuditEvent names a security-relevant action on the admin surface.
type AuditEvent string

const (
	AuditLoginSuccess    AuditEvent = "login_success"
	AuditLoginFailure    AuditEvent = "login_failure"
	AuditLoginLocked     AuditEvent = "login_locked"
	AuditLoginRefused    AuditEvent = "login_refused_locked"
	AuditLogout          AuditEvent = "logout"
	AuditUnauthorized    AuditEvent = "unauthorized"
	AuditCSRFRejected    AuditEvent = "csrf_rejected"
	AuditContentCreated  AuditEvent = "content_created"
	AuditContentUpdated  AuditEvent = "content_updated"
	AuditContentDeleted  AuditEvent = "content_deleted"
	AuditSettingsUpdated AuditEvent = "settings_updated"
	AuditImageUploaded   AuditEvent = "image_uploaded"
)

// auditLogger writes one structured line per admin event and feeds the
// metrics collector. The password never reaches it; a session shows up
// only as its nonce.
type auditLogger struct {
	logger  *slog.Logger
	metrics *metricsCollector
	now     func() time.Time
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{
		logger: logger.With("component", "audit"),
		now:    time.Now,
	}
}

func (al *auditLogger) emit(level slog.Level, event AuditEvent, r *http.Request, attrs []slog.Attr) {
	all := make([]slog.Attr, 0, len(attrs)+4)
	all = append(all,
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
		slog.Time("timestamp", al.now().UTC()),
	)
	if s, ok := sessionFromContext(r.Context()); ok {
		all = append(all, slog.String("session", s.Nonce))
	}
	all = append(all, attrs...)
	al.logger.LogAttrs(r.Context(), level, "audit", all...)
	al.metrics.recordEvent(event)
}

func (al *auditLogger) log(event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	al.emit(slog.LevelInfo, event, r, attrs)
}

// logContent records an admin change to a content collection.
func (al *auditLogger) logContent(event AuditEvent, r *http.Request, collection, id string) {
	al.emit(slog.LevelInfo, event, r, []slog.Attr{
		slog.String("collection", collection),
		slog.String("id", id),
	})
}

// logFailure records a refused request at warn level.
func (al *auditLogger) logFailure(event AuditEvent, r *http.Request, reason string, extra ...slog.Attr) {
	al.emit(slog.LevelWarn, event, r, append([]slog.Attr{slog.String("reason", reason)}, extra...))
}
