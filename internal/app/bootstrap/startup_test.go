package bootstrap

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/cwcconnect/internal/app/system/mongoconn"
	"github.com/dalemusser/cwcconnect/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:          "mongodb://localhost:27017",
		MongoDatabase:     "cwc_connect",
		APIRetries:        3,
		SyncInterval:      6 * time.Hour,
		StorePingInterval: 30 * time.Second,
		AssistantProvider: "none",
		DataDir:           "./data",
		RosterFile:        "eOffice.xlsx",
		DirectoryFile:     "directory.xlsx",
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"valid", func(*AppConfig) {}, false},
		{"bad mongo uri", func(c *AppConfig) { c.MongoURI = "postgres://nope" }, true},
		{"missing database", func(c *AppConfig) { c.MongoDatabase = "" }, true},
		{"api url ok", func(c *AppConfig) { c.UpdateAPI = "https://api.example.org/employees" }, false},
		{"api url relative", func(c *AppConfig) { c.UpdateAPI = "/employees" }, true},
		{"api url ftp", func(c *AppConfig) { c.UpdateAPI = "ftp://example.org" }, true},
		{"negative retries", func(c *AppConfig) { c.APIRetries = -1 }, true},
		{"zero interval", func(c *AppConfig) { c.SyncInterval = 0 }, true},
		{"unknown provider", func(c *AppConfig) { c.AssistantProvider = "openai" }, true},
		{"gemini without key", func(c *AppConfig) { c.AssistantProvider = "gemini" }, true},
		{"gemini with key", func(c *AppConfig) { c.AssistantProvider = "gemini"; c.GeminiAPIKey = "k" }, false},
		{"negative rate", func(c *AppConfig) { c.ChatRateLimit = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(nil, cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvValues_DefaultsAndOverrides(t *testing.T) {
	env := map[string]string{
		"CWCCONNECT_UPDATE_API":           " https://api.example.org ",
		"CWCCONNECT_API_RETRIES":          "5",
		"CWCCONNECT_SYNC_ON_START":        "false",
		"CWCCONNECT_SYNC_INTERVAL":        "1h",
		"CWCCONNECT_CORS_ALLOWED_ORIGINS": "https://a.example, ,https://b.example",
		"CWCCONNECT_ASSISTANT_PROVIDER":   "  None ",
		"CWCCONNECT_API_TIMEOUT":          "not-a-duration",
	}
	cfg := envValues{lookup: func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}}.source()

	if cfg.MongoURI != "mongodb://localhost:27017" || cfg.MongoDatabase != "cwc_connect" {
		t.Errorf("mongo defaults not applied: %q %q", cfg.MongoURI, cfg.MongoDatabase)
	}
	if cfg.UpdateAPI != "https://api.example.org" {
		t.Errorf("UpdateAPI: got %q", cfg.UpdateAPI)
	}
	if cfg.APIRetries != 5 {
		t.Errorf("APIRetries: got %d", cfg.APIRetries)
	}
	if cfg.SyncOnStart {
		t.Error("SyncOnStart should be overridden to false")
	}
	if cfg.SyncInterval != time.Hour {
		t.Errorf("SyncInterval: got %v", cfg.SyncInterval)
	}
	if cfg.APITimeout != 30*time.Second {
		t.Errorf("APITimeout should fall back to 30s, got %v", cfg.APITimeout)
	}
	if cfg.APIRetryDelay != 5*time.Second {
		t.Errorf("APIRetryDelay: got %v", cfg.APIRetryDelay)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("CORSAllowedOrigins: got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.AssistantProvider != "none" {
		t.Errorf("AssistantProvider: got %q", cfg.AssistantProvider)
	}
	if cfg.RosterFile != "eOffice.xlsx" || cfg.DirectoryFile != "directory.xlsx" {
		t.Errorf("spreadsheet defaults: %q %q", cfg.RosterFile, cfg.DirectoryFile)
	}
	if cfg.ChatRateLimit != 60 {
		t.Errorf("ChatRateLimit: got %d", cfg.ChatRateLimit)
	}
	if err := ValidateConfig(nil, cfg, testLogger()); err != nil {
		t.Errorf("env config should validate: %v", err)
	}
}

func TestEnsureSchema_SkipsWhenUnavailable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{Mongo: mongoconn.FromDatabase(db, false, testLogger())}
	if err := EnsureSchema(ctx, nil, validConfig(), deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	colls, err := db.ListCollectionNames(ctx, bson.M{"name": "employees"})
	if err != nil {
		t.Fatalf("list collections: %v", err)
	}
	if len(colls) != 0 {
		t.Errorf("expected no employees collection while unavailable, got %v", colls)
	}
}

func TestEnsureSchema_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{Mongo: mongoconn.FromDatabase(db, true, testLogger())}
	if err := EnsureSchema(ctx, nil, validConfig(), deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	specs, err := db.Collection("employees").Indexes().ListSpecifications(ctx)
	if err != nil {
		t.Fatalf("list indexes: %v", err)
	}
	found := false
	for _, s := range specs {
		if s.Name == "uniq_employees_mobile" {
			found = true
		}
	}
	if !found {
		t.Error("expected unique mobile index")
	}
}

func newTestRuntime(t *testing.T) (*Runtime, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	rt := &Runtime{}
	cfg := validConfig()
	cfg.DataDir = t.TempDir()
	cfg.CORSAllowedOrigins = []string{"https://directory.example"}
	if err := rt.Init(context.Background(), cfg, mongoconn.FromDatabase(db, true, testLogger()), prometheus.NewRegistry(), testLogger()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(rt.Close)
	return rt, testutil.NewFixtures(t, db)
}

func TestRouter_EndToEnd(t *testing.T) {
	rt, fx := newTestRuntime(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateEmployee(ctx, testutil.Employee("Jane Doe", "DIRECTOR", "9000000001"))

	h, err := newRouter(validConfig(), rt, testLogger())
	if err != nil {
		t.Fatalf("newRouter failed: %v", err)
	}

	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewRequest("GET", "/api/health"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"database":"connected"`)

	rec = testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewRequest("GET", "/api/employees"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Jane Doe")
	rec.AssertNotContains(t, "9000000001")

	rec = testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewJSONRequest("POST", "/api/chatbot", map[string]string{"message": "director"}))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"employeeCount":1`)

	rec = testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewRequest("GET", "/api/employees/sync/status"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"totalEmployees":1`)
	rec.AssertContains(t, "Every 6 hours")

	rec = testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewRequest("GET", "/api/employees/sync/api"))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewRequest("GET", "/api/hierarchy?q=chairman"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Atul Jain")

	rec = testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewRequest("GET", "/metrics"))
	rec.AssertStatus(t, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "cwcconnect_chat_queries_total") {
		t.Error("expected chat query counter in metrics output")
	}
}

func TestRouter_ManualSyncWithoutSpreadsheetsFails(t *testing.T) {
	rt, _ := newTestRuntime(t)
	h, err := newRouter(validConfig(), rt, testLogger())
	if err != nil {
		t.Fatalf("newRouter failed: %v", err)
	}

	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewRequest("GET", "/api/employees/sync/manual"))
	rec.AssertStatus(t, http.StatusInternalServerError)
	rec.AssertContains(t, "Sync failed")

	if last, ok := rt.Engine.LastRun(); !ok || last.Error == "" {
		t.Errorf("expected failed run to be remembered, got %+v", last)
	}
}

func TestRuntime_RestoreStoreEnsuresIndexesAndSyncs(t *testing.T) {
	rt, fx := newTestRuntime(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// No spreadsheets in the data dir: the sync runs and fails, which must
	// not fail the restore.
	if err := rt.restoreStore(ctx, testLogger()); err != nil {
		t.Fatalf("restoreStore failed: %v", err)
	}

	specs, err := fx.DB().Collection("employees").Indexes().ListSpecifications(ctx)
	if err != nil {
		t.Fatalf("list indexes: %v", err)
	}
	found := false
	for _, s := range specs {
		if s.Name == "uniq_employees_mobile" {
			found = true
		}
	}
	if !found {
		t.Error("expected unique mobile index after restore")
	}

	if _, ok := rt.Engine.LastRun(); !ok {
		t.Error("expected a sync cycle after restore")
	}
}

func TestRuntime_CloseIsNilSafe(t *testing.T) {
	var rt *Runtime
	rt.Close()
	(&Runtime{}).Close()
}
