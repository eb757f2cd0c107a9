package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"propertyhub_backend/internal/model"
	"propertyhub_backend/internal/service"
	"propertyhub_backend/internal/testutils"
	"propertyhub_backend/pkg/cache"
	"propertyhub_backend/pkg/config"
	"propertyhub_backend/pkg/storage"
	"propertyhub_backend/pkg/utils/jwt"
)

type testServer struct {
	app        *fiber.App
	adminToken string
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	jwt.Configure("test-secret", time.Hour)

	db := testutils.SetupDB(t)
	cfg := &config.Config{
		Storage: config.StorageConfig{UploadDir: t.TempDir(), URLPrefix: "/uploads"},
		Listing: config.ListingConfig{DefaultStatus: "draft"},
	}
	store := storage.NewLocal(cfg.Storage.UploadDir, cfg.Storage.URLPrefix, false)
	c := cache.New(config.RedisConfig{})
	cleanup := service.NewCleanupService(db, store, newLogger("cleanup"), 3, 10)

	admin := testutils.CreateUser(t, db, "admin@example.com", model.RoleAdmin)
	adminToken, err := jwt.GenerateToken(admin.ID, admin.Email, string(admin.Role))
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	return &testServer{app: newApp(cfg, db, store, c, cleanup), adminToken: adminToken}
}

func (s *testServer) do(t *testing.T, req *http.Request, token string) (int, []byte) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body
}

func (s *testServer) json(t *testing.T, method, path, token string, payload interface{}) (int, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.do(t, req, token)
}

func (s *testServer) register(t *testing.T, name, email string) string {
	t.Helper()
	code, body := s.json(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret123",
	})
	if code != http.StatusCreated {
		t.Fatalf("register: %d %s", code, body)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Token == "" {
		t.Fatalf("register response: %s", body)
	}
	return out.Token
}

func multipartCreate(t *testing.T, data map[string]interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := mw.WriteField("data", string(raw)); err != nil {
		t.Fatalf("write field: %v", err)
	}
	part, err := mw.CreateFormFile("images", "front.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write(testutils.PNG(t))
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/properties", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeProperty(t *testing.T, body []byte) model.Property {
	t.Helper()
	var p model.Property
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatalf("decode property: %v (%s)", err, body)
	}
	return p
}

func TestPropertyLifecycle(t *testing.T) {
	s := setupTestServer(t)
	ownerToken := s.register(t, "Owner", "owner@example.com")
	otherToken := s.register(t, "Other", "other@example.com")

	code, body := s.do(t, multipartCreate(t, map[string]interface{}{
		"title":         "Garden Villa",
		"property_type": "villa",
		"listing_type":  "sale",
		"price":         450000,
		"location":      map[string]string{"city": "Pune", "locality": "Aundh"},
	}), ownerToken)
	if code != http.StatusCreated {
		t.Fatalf("create: %d %s", code, body)
	}
	created := decodeProperty(t, body)
	if created.Status != model.PropertyStatusDraft || len(created.Images) != 1 {
		t.Fatalf("unexpected created property: %+v", created)
	}
	path := fmt.Sprintf("/api/properties/%d", created.ID)

	if code, body := s.do(t, multipartCreate(t, map[string]interface{}{
		"title":         "Pre Verified",
		"property_type": "villa",
		"listing_type":  "sale",
		"price":         1,
		"status":        "verified",
	}), ownerToken); code != http.StatusBadRequest {
		t.Fatalf("create as verified: expected 400, got %d %s", code, body)
	}

	if code, _ := s.do(t, httptest.NewRequest(http.MethodGet, path, nil), ""); code != http.StatusOK {
		t.Fatalf("get: %d", code)
	}

	if code, _ := s.json(t, http.MethodPut, path, otherToken, map[string]string{"title": "Hijacked"}); code != http.StatusForbidden {
		t.Fatalf("non-owner update: expected 403, got %d", code)
	}
	code, body = s.json(t, http.MethodPut, path, ownerToken, map[string]interface{}{"title": "Garden Villa II"})
	if code != http.StatusOK || decodeProperty(t, body).Title != "Garden Villa II" {
		t.Fatalf("owner update: %d %s", code, body)
	}
	if code, _ := s.json(t, http.MethodPut, path, ownerToken, map[string]interface{}{"is_featured": true}); code != http.StatusForbidden {
		t.Fatalf("owner feature: expected 403, got %d", code)
	}
	if code, _ := s.json(t, http.MethodPatch, path+"/status", ownerToken, map[string]string{"status": "verified"}); code != http.StatusBadRequest {
		t.Fatalf("owner self-verify: expected 400, got %d", code)
	}
	if code, _ := s.json(t, http.MethodPatch, path+"/status", ownerToken, map[string]string{"status": "blocked"}); code != http.StatusForbidden {
		t.Fatalf("owner block: expected 403, got %d", code)
	}
	if code, _ := s.json(t, http.MethodPut, path, s.adminToken, map[string]interface{}{"is_featured": true}); code != http.StatusOK {
		t.Fatalf("admin feature: %d", code)
	}
	if code, _ := s.json(t, http.MethodPatch, path+"/status", s.adminToken, map[string]string{"status": "published"}); code != http.StatusOK {
		t.Fatalf("admin status update: %d", code)
	}
	if code, _ := s.json(t, http.MethodPatch, path+"/status", ownerToken, map[string]string{"status": "gone"}); code != http.StatusBadRequest {
		t.Fatalf("invalid status: expected 400, got %d", code)
	}

	code, body = s.do(t, httptest.NewRequest(http.MethodGet, "/api/properties/featured", nil), "")
	if code != http.StatusOK || !strings.Contains(string(body), "Garden Villa II") {
		t.Fatalf("featured: %d %s", code, body)
	}

	verifyPath := fmt.Sprintf("/api/admin/properties/%d/verify", created.ID)
	if code, _ := s.json(t, http.MethodPut, verifyPath, ownerToken, nil); code != http.StatusForbidden {
		t.Fatalf("owner verify: expected 403, got %d", code)
	}
	code, body = s.json(t, http.MethodPut, verifyPath, s.adminToken, nil)
	if code != http.StatusOK || !decodeProperty(t, body).IsVerified {
		t.Fatalf("admin verify: %d %s", code, body)
	}

	rejectPath := fmt.Sprintf("/api/admin/properties/%d/reject", created.ID)
	if code, _ := s.json(t, http.MethodPut, rejectPath, s.adminToken, map[string]string{"reason": ""}); code != http.StatusBadRequest {
		t.Fatalf("reject without reason: expected 400, got %d", code)
	}

	code, body = s.do(t, httptest.NewRequest(http.MethodGet, "/api/me/properties", nil), ownerToken)
	if code != http.StatusOK || !strings.Contains(string(body), `"total":1`) {
		t.Fatalf("my properties: %d %s", code, body)
	}

	if code, _ := s.do(t, httptest.NewRequest(http.MethodDelete, path, nil), otherToken); code != http.StatusForbidden {
		t.Fatalf("non-owner delete: expected 403, got %d", code)
	}
	if code, _ := s.do(t, httptest.NewRequest(http.MethodDelete, path, nil), ownerToken); code != http.StatusOK {
		t.Fatalf("owner delete: %d", code)
	}
	if code, _ := s.do(t, httptest.NewRequest(http.MethodGet, path, nil), ""); code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", code)
	}
}

func TestRequestErrors(t *testing.T) {
	s := setupTestServer(t)
	token := s.register(t, "Owner", "owner@example.com")

	cases := []struct {
		method, path, token string
		want                int
	}{
		{http.MethodGet, "/api/properties?sort_by=password", "", http.StatusBadRequest},
		{http.MethodGet, "/api/properties/abc", "", http.StatusBadRequest},
		{http.MethodGet, "/api/properties/999", "", http.StatusNotFound},
		{http.MethodGet, "/api/properties/999/images", "", http.StatusNotFound},
		{http.MethodPost, "/api/properties", "", http.StatusUnauthorized},
		{http.MethodPut, "/api/properties/999", token, http.StatusNotFound},
		{http.MethodGet, "/api/admin/stats", token, http.StatusForbidden},
		{http.MethodGet, "/api/admin/stats", "garbage", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		code, body := s.do(t, httptest.NewRequest(tc.method, tc.path, nil), tc.token)
		if code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d (%s)", tc.method, tc.path, tc.want, code, body)
		}
	}

	if code, _ := s.json(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Dup", "email": "owner@example.com", "password": "secret123",
	}); code != http.StatusBadRequest {
		t.Fatalf("duplicate email: expected 400, got %d", code)
	}
	if code, _ := s.json(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "owner@example.com", "password": "wrong",
	}); code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", code)
	}
	if code, _ := s.json(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "OWNER@example.com", "password": "secret123",
	}); code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", code)
	}
}

func TestAdminStatsAndExport(t *testing.T) {
	s := setupTestServer(t)
	token := s.register(t, "Owner", "owner@example.com")

	if code, body := s.json(t, http.MethodPost, "/api/properties", token, map[string]interface{}{
		"title": "Plot 7", "property_type": "plot", "listing_type": "sale",
	}); code != http.StatusCreated {
		t.Fatalf("create: %d %s", code, body)
	}

	code, body := s.do(t, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil), s.adminToken)
	if code != http.StatusOK || !strings.Contains(string(body), `"total":1`) {
		t.Fatalf("stats: %d %s", code, body)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/properties/export", nil)
	req.Header.Set("Authorization", "Bearer "+s.adminToken)
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("unexpected content type %q", ct)
	}
}
