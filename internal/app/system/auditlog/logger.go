// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"slices"

	"github.com/dalemusser/staffdir/internal/app/store/audit"
	"github.com/dalemusser/staffdir/internal/app/system/htmlsanitize"
	"github.com/dalemusser/staffdir/internal/app/system/ratelimit"
	"github.com/dalemusser/staffdir/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category of events.
const (
	ModeAll = "all" // MongoDB and zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Modes lists the accepted Config values.
var Modes = []string{ModeAll, ModeDB, ModeLog, ModeOff}

// ValidMode reports whether s is one of Modes.
func ValidMode(s string) bool { return slices.Contains(Modes, s) }

// Config picks a destination per event category.
type Config struct {
	Auth  string // credential checks and token revocation
	Admin string // user create, update, delete
}

// Logger writes audit events to the audit store and/or zap.
// A nil *Logger discards everything, so handlers may be built without one.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) mode(category string) string {
	switch category {
	case audit.CategoryAuth:
		return l.config.Auth
	case audit.CategoryAdmin:
		return l.config.Admin
	}
	return ModeAll
}

// Log records event according to its category's mode. A failed insert is
// logged and swallowed; auditing never fails the request it describes.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	mode := l.mode(event.Category)
	if mode == ModeAll || mode == ModeLog {
		l.logToZap(event)
	}
	if mode == ModeAll || mode == ModeDB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}
	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func fromRequest(r *http.Request, category, eventType string, userID *primitive.ObjectID) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		UserID:    userID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: htmlsanitize.PlainText(r.UserAgent()),
		Success:   true,
	}
}

// --- Admin events ---

// UserCreated records a new user. Only the category is kept as detail;
// contact data stays out of the audit trail.
func (l *Logger) UserCreated(ctx context.Context, r *http.Request, u models.User) {
	e := fromRequest(r, audit.CategoryAdmin, audit.EventUserCreated, &u.ID)
	e.Details = map[string]string{
		"main_category":   u.UserCategory.MainCategory,
		"detail_category": u.UserCategory.DetailCategory,
	}
	l.Log(ctx, e)
}

func (l *Logger) UserUpdated(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, fromRequest(r, audit.CategoryAdmin, audit.EventUserUpdated, &userID))
}

func (l *Logger) UserDeleted(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, fromRequest(r, audit.CategoryAdmin, audit.EventUserDeleted, &userID))
}

// --- Auth events ---

func (l *Logger) AuthSucceeded(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, fromRequest(r, audit.CategoryAuth, audit.EventAuthSucceeded, &userID))
}

// AuthFailed records a rejected credential check. Unknown emails and wrong
// passwords are not told apart, here or in the response. The attempted
// email is not recorded.
func (l *Logger) AuthFailed(ctx context.Context, r *http.Request) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventAuthFailed, nil)
	e.Success = false
	e.FailureReason = "invalid credentials"
	l.Log(ctx, e)
}

func (l *Logger) AuthThrottled(ctx context.Context, r *http.Request) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventAuthThrottled, nil)
	e.Success = false
	e.FailureReason = "rate limited"
	l.Log(ctx, e)
}

func (l *Logger) RefreshTokenRevoked(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, fromRequest(r, audit.CategoryAuth, audit.EventRefreshTokenRevoked, &userID))
}
