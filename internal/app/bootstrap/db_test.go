package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/staffdir/internal/app/system/indexes"
	"github.com/dalemusser/staffdir/internal/testutil"
	"go.uber.org/zap"
)

func TestEnsureSchema_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}
	for i := 0; i < 2; i++ {
		if err := EnsureSchema(ctx, nil, validAppConfig(), deps, zap.NewNop()); err != nil {
			t.Fatalf("EnsureSchema run %d failed: %v", i+1, err)
		}
	}

	specs, err := db.Collection("users").Indexes().ListSpecifications(ctx)
	if err != nil {
		t.Fatalf("ListSpecifications failed: %v", err)
	}
	found := false
	for _, s := range specs {
		if s.Name == indexes.UsersEmailUnique {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %q after EnsureSchema", indexes.UsersEmailUnique)
	}
}

func TestBuildHandler_MountsRoutes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}

	cfg := validAppConfig()
	cfg.AccessTokenSecret = strings.Repeat("s", 32)
	cfg.AccessTokenTTL = time.Minute
	h, err := BuildHandler(nil, cfg, deps, zap.NewNop())
	if err != nil {
		t.Fatalf("BuildHandler failed: %v", err)
	}

	tests := []struct {
		path   string
		status int
	}{
		{"/health", http.StatusOK},
		{"/users?main_category=doctor", http.StatusOK},
		{"/users/not-an-id", http.StatusBadRequest},
		{"/users/me", http.StatusUnauthorized},
		{"/nowhere", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if rec.Code != tt.status {
				t.Errorf("GET %s: expected %d, got %d", tt.path, tt.status, rec.Code)
			}
		})
	}
}
