package auditlog_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/staffdir/internal/app/store/audit"
	"github.com/dalemusser/staffdir/internal/app/system/auditlog"
	"github.com/dalemusser/staffdir/internal/domain/models"
	"github.com/dalemusser/staffdir/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("POST", "/", nil)

	// All no-ops, none may panic.
	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.UserCreated(ctx, req, models.User{ID: primitive.NewObjectID()})
	logger.AuthFailed(ctx, req)
}

func TestLogger_Modes(t *testing.T) {
	tests := []struct {
		mode   string
		wantDB bool
		wantZ  bool
	}{
		{auditlog.ModeAll, true, true},
		{auditlog.ModeDB, true, false},
		{auditlog.ModeLog, false, true},
		{auditlog.ModeOff, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			core, logs := observer.New(zap.InfoLevel)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			logger := auditlog.New(store, zap.New(core), auditlog.Config{Auth: tt.mode, Admin: tt.mode})
			userID := primitive.NewObjectID()
			logger.UserDeleted(ctx, httptest.NewRequest("DELETE", "/", nil), userID)

			events, err := store.ForUser(ctx, userID, 10)
			if err != nil {
				t.Fatalf("ForUser failed: %v", err)
			}
			if gotDB := len(events) == 1; gotDB != tt.wantDB {
				t.Errorf("stored=%v, want %v", gotDB, tt.wantDB)
			}
			if gotZ := logs.FilterMessage("audit event").Len() == 1; gotZ != tt.wantZ {
				t.Errorf("logged=%v, want %v", gotZ, tt.wantZ)
			}
		})
	}
}

func TestLogger_CategoriesAreIndependent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.ModeOff, Admin: auditlog.ModeDB})
	req := httptest.NewRequest("POST", "/", nil)
	userID := primitive.NewObjectID()

	logger.AuthSucceeded(ctx, req, userID)
	logger.UserUpdated(ctx, req, userID)

	events, err := store.ForUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("ForUser failed: %v", err)
	}
	if len(events) != 1 || events[0].EventType != audit.EventUserUpdated {
		t.Errorf("expected only the admin event, got %+v", events)
	}
}

func TestLogger_UserCreated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.ModeDB, Admin: auditlog.ModeDB})
	req := httptest.NewRequest("POST", "/users", nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4")

	u := testutil.ValidUser("jo@x.com")
	u.ID = primitive.NewObjectID()
	logger.UserCreated(ctx, req, u)

	events, err := store.ForUser(ctx, u.ID, 10)
	if err != nil {
		t.Fatalf("ForUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.IP != "1.2.3.4" {
		t.Errorf("IP: got %q", e.IP)
	}
	if e.Details["main_category"] != models.MainCategoryDoctor {
		t.Errorf("main_category detail: got %q", e.Details["main_category"])
	}
	if _, ok := e.Details["email"]; ok {
		t.Error("contact data must not be copied into the audit trail")
	}
}

func TestLogger_AuthFailed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.ModeDB, Admin: auditlog.ModeDB})
	logger.AuthFailed(ctx, httptest.NewRequest("POST", "/", nil))

	events, err := store.Query(ctx, audit.Filter{EventType: audit.EventAuthFailed})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Success || events[0].UserID != nil {
		t.Errorf("unexpected event: %+v", events[0])
	}
	if len(events[0].Details) != 0 {
		t.Errorf("auth failures must not carry details, got %v", events[0].Details)
	}
}

func TestLogger_AuthEventsOmitEmail(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		log       func(*auditlog.Logger, context.Context, *http.Request)
	}{
		{"failed", audit.EventAuthFailed, (*auditlog.Logger).AuthFailed},
		{"throttled", audit.EventAuthThrottled, (*auditlog.Logger).AuthThrottled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			core, logs := observer.New(zap.InfoLevel)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			logger := auditlog.New(store, zap.New(core), auditlog.Config{Auth: auditlog.ModeAll, Admin: auditlog.ModeAll})
			body := strings.NewReader(`{"email":"who@x.com","password":"wrong-password"}`)
			tt.log(logger, ctx, httptest.NewRequest("POST", "/auth", body))

			events, err := store.Query(ctx, audit.Filter{EventType: tt.eventType})
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			if strings.Contains(fmt.Sprintf("%+v", events[0]), "who@x.com") {
				t.Errorf("stored event contains the attempted email: %+v", events[0])
			}
			for _, entry := range logs.All() {
				for k, v := range entry.ContextMap() {
					if strings.Contains(fmt.Sprint(v), "who@x.com") {
						t.Errorf("log field %q contains the attempted email", k)
					}
				}
			}
		})
	}
}

func TestLogger_UserAgentStripsMarkup(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want string
	}{
		{"plain", "curl/8.5.0", "curl/8.5.0"},
		{"script", `Mozilla/5.0<script>alert(1)</script>`, "Mozilla/5.0"},
		{"tag", `<b>bot</b>/1.0`, "bot/1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.ModeDB, Admin: auditlog.ModeDB})
			req := httptest.NewRequest("POST", "/auth", nil)
			req.Header.Set("User-Agent", tt.ua)
			logger.AuthFailed(ctx, req)

			events, err := store.Query(ctx, audit.Filter{EventType: audit.EventAuthFailed})
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			if events[0].UserAgent != tt.want {
				t.Errorf("UserAgent = %q, want %q", events[0].UserAgent, tt.want)
			}
		})
	}
}

func TestValidMode(t *testing.T) {
	for _, m := range auditlog.Modes {
		if !auditlog.ValidMode(m) {
			t.Errorf("ValidMode(%q) = false", m)
		}
	}
	if auditlog.ValidMode("everything") {
		t.Error("ValidMode accepted an unknown mode")
	}
}
