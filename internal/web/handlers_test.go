package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/go-while/go-nntparc/internal/config"
	"github.com/go-while/go-nntparc/internal/database"
	"github.com/go-while/go-nntparc/internal/models"
	"github.com/go-while/go-nntparc/internal/processor"
)

// testServer wires routes onto a bare engine; template pages are
// covered separately, the tests here hit the JSON and control routes.
func testServer(t *testing.T, cfg *config.Config) (*WebServer, *database.Database) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(&config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "web.sq3")})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := &WebServer{
		DB:     db,
		Router: gin.New(),
		Config: cfg,
		Proc:   processor.NewProcessor(db, cfg),
	}
	s.setupRoutes()
	return s, db
}

func doRequest(s *WebServer, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	s, _ := testServer(t, config.DefaultConfig())
	w := doRequest(s, httptest.NewRequest("GET", "/ping", nil))
	if w.Code != http.StatusOK || w.Body.String() != "pong" {
		t.Fatalf("ping = %d %q", w.Code, w.Body.String())
	}
}

func TestStatsEndpoint(t *testing.T) {
	s, db := testServer(t, config.DefaultConfig())

	group, _ := db.GetOrCreateGroup("misc.test")
	now := time.Now().UTC()
	thread := &models.Thread{GroupID: group.ID, Subject: "t", Created: now, Updated: now}
	msg := &models.Message{
		GroupID: group.ID, MsgID: "<s@test>", Subject: "t", SubjectNormalized: "t",
		Created: now, Thread: thread,
	}
	if err := db.InsertBatch([]*models.Thread{thread}, []*models.Message{msg}); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	w := doRequest(s, httptest.NewRequest("GET", "/api/v1/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}
	var stats database.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("bad stats json: %v", err)
	}
	if stats.Groups != 1 || stats.Threads != 1 || stats.Messages != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestMessageReferencesEndpoint(t *testing.T) {
	s, db := testServer(t, config.DefaultConfig())

	group, _ := db.GetOrCreateGroup("misc.test")
	now := time.Now().UTC()
	thread := &models.Thread{GroupID: group.ID, Subject: "t", Created: now, Updated: now}
	msg := &models.Message{
		GroupID: group.ID, MsgID: "<r@test>", Subject: "t", SubjectNormalized: "t",
		Created: now, Thread: thread, Refs: []string{"<one@test>", "<two@test>"},
	}
	if err := db.InsertBatch([]*models.Thread{thread}, []*models.Message{msg}); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	w := doRequest(s, httptest.NewRequest("GET", "/api/v1/messages/1/references", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("references status = %d", w.Code)
	}
	var resp struct {
		References []*models.Reference `json:"references"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad references json: %v", err)
	}
	if len(resp.References) != 2 || resp.References[0].RefMsgID != "<one@test>" {
		t.Fatalf("references = %+v", resp.References)
	}

	w = doRequest(s, httptest.NewRequest("GET", "/api/v1/messages/glue/references", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric id status = %d, want 400", w.Code)
	}
}

func TestUpdateRequiresAdmin(t *testing.T) {
	cfg := config.DefaultConfig()
	s, _ := testServer(t, cfg)

	// no hash configured: trigger disabled outright
	w := doRequest(s, httptest.NewRequest("GET", "/update", nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("unconfigured /update status = %d, want 403", w.Code)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	cfg.Web.AdminPasswordHash = string(hash)

	w = doRequest(s, httptest.NewRequest("GET", "/update", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing credentials status = %d, want 401", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate challenge")
	}

	req := httptest.NewRequest("GET", "/update", nil)
	req.SetBasicAuth("admin", "wrong")
	if w = doRequest(s, req); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d, want 401", w.Code)
	}

	// correct password runs a cycle; no groups configured means it
	// finishes immediately without touching the network
	req = httptest.NewRequest("GET", "/update", nil)
	req.SetBasicAuth("admin", "letmein")
	if w = doRequest(s, req); w.Code != http.StatusOK {
		t.Fatalf("authorized /update status = %d, want 200", w.Code)
	}
}
