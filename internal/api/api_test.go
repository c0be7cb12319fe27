package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/ecotrack/ecotrack/internal/db"
	"github.com/ecotrack/ecotrack/internal/detect"
	"github.com/ecotrack/ecotrack/internal/model"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB) {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(RouterConfig{
		DB:          database,
		JWTSecret:   testJWTSecret,
		Detector:    &detect.RandomDetector{},
		CORSOrigins: []string{"*"},
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, database
}

// newClient returns an HTTP client with a cookie jar, so the session
// cookie set at registration/login is sent on subsequent requests.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("creating cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func putJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	data, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("building PUT %s: %v", url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("PUT %s: %v", url, err)
	}
	return resp
}

// register creates an account and returns a client holding its session cookie.
func register(t *testing.T, server *httptest.Server, name, email string) *http.Client {
	t.Helper()
	client := newClient(t)
	resp := postJSON(t, client, server.URL+"/api/auth/register", map[string]string{
		"name": name, "email": email, "password": "password123",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d", email, resp.StatusCode)
	}
	return client
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func TestRegisterValidation(t *testing.T) {
	server, _ := setupTestServer(t)
	client := newClient(t)

	resp := postJSON(t, client, server.URL+"/api/auth/register", map[string]string{
		"name": "Alice", "email": "alice@example.com",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing password, got %d", resp.StatusCode)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	server, database := setupTestServer(t)
	register(t, server, "Alice", "alice@example.com")

	resp := postJSON(t, newClient(t), server.URL+"/api/auth/register", map[string]string{
		"name": "Imposter", "email": "alice@example.com", "password": "hunter2!",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate email, got %d", resp.StatusCode)
	}

	var count int
	database.QueryRow(`SELECT COUNT(*) FROM users WHERE email = 'alice@example.com'`).Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 user row, got %d", count)
	}
}

func TestLogin(t *testing.T) {
	server, _ := setupTestServer(t)
	register(t, server, "Alice", "alice@example.com")

	// Missing field.
	resp := postJSON(t, newClient(t), server.URL+"/api/auth/login", map[string]string{"email": "alice@example.com"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing password, got %d", resp.StatusCode)
	}

	// Wrong password.
	resp = postJSON(t, newClient(t), server.URL+"/api/auth/login", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}

	// Good credentials; the hash must never appear in the response.
	resp = postJSON(t, newClient(t), server.URL+"/api/auth/login", map[string]string{
		"email": "alice@example.com", "password": "password123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for login, got %d", resp.StatusCode)
	}
	body := decodeBody[map[string]any](t, resp)
	if _, ok := body["password_hash"]; ok {
		t.Error("login response leaked password hash")
	}
	if body["email"] != "alice@example.com" {
		t.Errorf("expected email in login response, got %v", body["email"])
	}
}

func TestMeAndLogout(t *testing.T) {
	server, _ := setupTestServer(t)
	client := register(t, server, "Alice", "alice@example.com")

	resp, err := client.Get(server.URL + "/api/auth/me")
	if err != nil {
		t.Fatalf("GET /api/auth/me: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	user := decodeBody[model.User](t, resp)
	if user.Name != "Alice" || user.Points != 0 {
		t.Errorf("unexpected profile: %+v", user)
	}

	resp = postJSON(t, client, server.URL+"/api/auth/logout", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for logout, got %d", resp.StatusCode)
	}

	// The cleared cookie must no longer authenticate.
	resp, _ = client.Get(server.URL + "/api/auth/me")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	server, _ := setupTestServer(t)

	resp, _ := http.Get(server.URL + "/api/pickups")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without cookie, got %d", resp.StatusCode)
	}
}

func TestInvalidTokenForbidden(t *testing.T) {
	server, _ := setupTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/pickups", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "not-a-token"})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/pickups: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for invalid token, got %d", resp.StatusCode)
	}
}

func TestPickupFlow(t *testing.T) {
	server, _ := setupTestServer(t)
	client := register(t, server, "Alice", "alice@example.com")

	// Missing fields.
	resp := postJSON(t, client, server.URL+"/api/pickups", map[string]string{"address": "12 Green St"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing items_description, got %d", resp.StatusCode)
	}

	for i := range 3 {
		resp := postJSON(t, client, server.URL+"/api/pickups", map[string]string{
			"address": "12 Green St", "items_description": fmt.Sprintf("load %d", i),
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201 creating pickup, got %d", resp.StatusCode)
		}
		pickup := decodeBody[model.Pickup](t, resp)
		if pickup.Status != model.PickupStatusPending {
			t.Errorf("expected pending status, got %q", pickup.Status)
		}
	}

	resp, _ = client.Get(server.URL + "/api/pickups")
	pickups := decodeBody[[]model.Pickup](t, resp)
	if len(pickups) != 3 {
		t.Errorf("expected 3 pickups, got %d", len(pickups))
	}

	// Each pickup awards the fixed reward.
	resp, _ = client.Get(server.URL + "/api/auth/me")
	user := decodeBody[model.User](t, resp)
	if user.Points != 3*model.PointsPerPickup {
		t.Errorf("expected %d points, got %d", 3*model.PointsPerPickup, user.Points)
	}
}

func TestPickupIsolation(t *testing.T) {
	server, _ := setupTestServer(t)
	alice := register(t, server, "Alice", "alice@example.com")
	bob := register(t, server, "Bob", "bob@example.com")

	resp := postJSON(t, alice, server.URL+"/api/pickups", map[string]string{
		"address": "12 Green St", "items_description": "keyboard",
	})
	resp.Body.Close()

	resp, _ = bob.Get(server.URL + "/api/pickups")
	pickups := decodeBody[[]model.Pickup](t, resp)
	if len(pickups) != 0 {
		t.Errorf("expected Bob to see no pickups, got %d", len(pickups))
	}
}

func TestBatchLifecycle(t *testing.T) {
	server, _ := setupTestServer(t)
	client := register(t, server, "Alice", "alice@example.com")

	resp := postJSON(t, client, server.URL+"/api/roadmap", map[string]any{
		"source": "Office cleanout", "total_weight": 12.5,
		"items": []map[string]any{
			{"item_type": "Laptop", "quantity": 2, "condition": "broken"},
			{"item_type": "Monitor", "quantity": 3},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 creating batch, got %d", resp.StatusCode)
	}
	batch := decodeBody[model.Batch](t, resp)
	if batch.ItemCount != 5 {
		t.Errorf("expected item_count 5, got %d", batch.ItemCount)
	}
	if batch.Stage != model.StageIncoming {
		t.Errorf("expected stage incoming, got %q", batch.Stage)
	}

	// Stage must be present and from the fixed vocabulary.
	resp = putJSON(t, client, fmt.Sprintf("%s/api/roadmap/%d", server.URL, batch.ID), map[string]string{"notes": "no stage"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing stage, got %d", resp.StatusCode)
	}
	resp = putJSON(t, client, fmt.Sprintf("%s/api/roadmap/%d", server.URL, batch.ID), map[string]string{"stage": "vaporized"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown stage, got %d", resp.StatusCode)
	}

	resp = putJSON(t, client, fmt.Sprintf("%s/api/roadmap/%d", server.URL, batch.ID), map[string]string{
		"stage": model.StageCompleted, "notes": "fast-tracked",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 updating stage, got %d", resp.StatusCode)
	}
	updated := decodeBody[model.Batch](t, resp)
	if updated.Stage != model.StageCompleted {
		t.Errorf("expected stage completed, got %q", updated.Stage)
	}

	resp, _ = client.Get(fmt.Sprintf("%s/api/roadmap/%d", server.URL, batch.ID))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 fetching batch, got %d", resp.StatusCode)
	}
	detail := decodeBody[model.BatchDetail](t, resp)
	if len(detail.Items) != 2 {
		t.Errorf("expected 2 items, got %d", len(detail.Items))
	}
	if len(detail.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(detail.History))
	}
	if detail.History[0].ToStage != model.StageCompleted || detail.History[0].FromStage != model.StageIncoming {
		t.Errorf("expected latest entry incoming -> completed, got %q -> %q",
			detail.History[0].FromStage, detail.History[0].ToStage)
	}
}

func TestCreateBatchEmptyItems(t *testing.T) {
	server, database := setupTestServer(t)
	client := register(t, server, "Alice", "alice@example.com")

	resp := postJSON(t, client, server.URL+"/api/roadmap", map[string]any{
		"source": "Office", "items": []map[string]any{},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for empty items, got %d", resp.StatusCode)
	}

	var count int
	database.QueryRow(`SELECT COUNT(*) FROM batches`).Scan(&count)
	if count != 0 {
		t.Errorf("expected no batch rows, got %d", count)
	}
}

func TestBatchCrossOwnerNotFound(t *testing.T) {
	server, _ := setupTestServer(t)
	alice := register(t, server, "Alice", "alice@example.com")
	bob := register(t, server, "Bob", "bob@example.com")

	resp := postJSON(t, alice, server.URL+"/api/roadmap", map[string]any{
		"source": "Office", "items": []map[string]any{{"item_type": "Laptop", "quantity": 1}},
	})
	batch := decodeBody[model.Batch](t, resp)

	resp, _ = bob.Get(fmt.Sprintf("%s/api/roadmap/%d", server.URL, batch.ID))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 fetching foreign batch, got %d", resp.StatusCode)
	}

	resp = putJSON(t, bob, fmt.Sprintf("%s/api/roadmap/%d", server.URL, batch.ID), map[string]string{
		"stage": model.StageCompleted,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 updating foreign batch, got %d", resp.StatusCode)
	}

	// Owner still sees the original stage.
	resp, _ = alice.Get(fmt.Sprintf("%s/api/roadmap/%d", server.URL, batch.ID))
	detail := decodeBody[model.BatchDetail](t, resp)
	if detail.Stage != model.StageIncoming {
		t.Errorf("expected stage unchanged after foreign update, got %q", detail.Stage)
	}
}

// detectRequest builds a multipart detect request. A nil file omits the
// ewasteImage field entirely.
func detectRequest(t *testing.T, url string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if file != nil {
		part, err := writer.CreateFormFile("ewasteImage", "upload.bin")
		if err != nil {
			t.Fatalf("creating form file: %v", err)
		}
		if _, err := part.Write(file); err != nil {
			t.Fatalf("writing form file: %v", err)
		}
	} else {
		writer.WriteField("note", "no file here")
	}
	writer.Close()

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		t.Fatalf("building detect request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 32, 32))); err != nil {
		t.Fatalf("encoding test PNG: %v", err)
	}
	return buf.Bytes()
}

// detectLabel asserts a 200 response and returns the detected label.
func detectLabel(t *testing.T, client *http.Client, url string, file []byte) string {
	t.Helper()
	resp, err := client.Do(detectRequest(t, url, file))
	if err != nil {
		t.Fatalf("POST /api/detect: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody[map[string]string](t, resp)
	msg := body["message"]
	if !strings.HasPrefix(msg, "AI detected: ") || !strings.HasSuffix(msg, ".") {
		t.Fatalf("unexpected detect message: %q", msg)
	}
	return strings.TrimSuffix(strings.TrimPrefix(msg, "AI detected: "), ".")
}

func TestDetectNoFile(t *testing.T) {
	server, _ := setupTestServer(t)
	client := register(t, server, "Alice", "alice@example.com")

	resp, err := client.Do(detectRequest(t, server.URL+"/api/detect", nil))
	if err != nil {
		t.Fatalf("POST /api/detect: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without file, got %d", resp.StatusCode)
	}
}

func TestDetectEmptyFile(t *testing.T) {
	server, _ := setupTestServer(t)
	client := register(t, server, "Alice", "alice@example.com")

	resp, err := client.Do(detectRequest(t, server.URL+"/api/detect", []byte{}))
	if err != nil {
		t.Fatalf("POST /api/detect: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for empty file, got %d", resp.StatusCode)
	}
}

func TestDetectReturnsFixedLabel(t *testing.T) {
	server, _ := setupTestServer(t)
	client := register(t, server, "Alice", "alice@example.com")

	label := detectLabel(t, client, server.URL+"/api/detect", testPNG(t))
	if !slices.Contains(detect.Labels, label) {
		t.Errorf("label %q not in fixed vocabulary", label)
	}
}

func TestDetectAcceptsNonImageFile(t *testing.T) {
	server, _ := setupTestServer(t)
	client := register(t, server, "Alice", "alice@example.com")

	// Any non-empty upload gets a label; decoding never gates the
	// placeholder detector.
	label := detectLabel(t, client, server.URL+"/api/detect", []byte("just a text file"))
	if !slices.Contains(detect.Labels, label) {
		t.Errorf("label %q not in fixed vocabulary", label)
	}
}
