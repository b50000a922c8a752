package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/zulandar/pitstop/internal/auth"
	"github.com/zulandar/pitstop/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	svc, err := auth.NewService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	return NewRouter(StartOpts{
		DB:   gdb,
		Auth: svc,
		Log:  log,
	})
}

// doJSON drives one request through the router and decodes the JSON body.
func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var resp map[string]interface{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode %s %s response: %v\nbody: %s", method, path, err, rec.Body.String())
		}
	}
	return rec.Code, resp
}

// createOrg onboards a garage and returns the manager's token and join code.
func createOrg(t *testing.T, r *gin.Engine) (token, garageCode string) {
	t.Helper()
	code, resp := doJSON(t, r, http.MethodPost, "/api/orgs", "", gin.H{
		"name":          "מוסך הצפון",
		"manager_name":  "יוסי",
		"manager_phone": "052-1234567",
		"password":      "sup3rsecret",
	})
	if code != http.StatusCreated {
		t.Fatalf("create org: status %d, resp %v", code, resp)
	}
	o := resp["organization"].(map[string]interface{})
	return resp["token"].(string), o["garage_code"].(string)
}

// signup registers a user against the garage code. Pending signups return an
// empty token.
func signup(t *testing.T, r *gin.Engine, garageCode, name, phone, role string) (token, profileID string) {
	t.Helper()
	code, resp := doJSON(t, r, http.MethodPost, "/api/signup", "", gin.H{
		"garage_code": garageCode,
		"name":        name,
		"phone":       phone,
		"password":    "hunter2pass",
		"role":        role,
	})
	if code != http.StatusCreated {
		t.Fatalf("signup %s: status %d, resp %v", name, code, resp)
	}
	p := resp["profile"].(map[string]interface{})
	if tok, ok := resp["token"].(string); ok {
		token = tok
	}
	return token, p["id"].(string)
}

func TestEndToEnd_CheckInToCompletion(t *testing.T) {
	r := newTestRouter(t)
	managerToken, garageCode := createOrg(t, r)
	customerToken, _ := signup(t, r, garageCode, "דנה", "053-7654321", "CUSTOMER")

	// Customer registers their car.
	code, resp := doJSON(t, r, http.MethodPost, "/api/vehicles", customerToken, gin.H{
		"plate": "12-345-67",
		"model": "COROLLA",
		"year":  2019,
		"color": "לבן",
	})
	if code != http.StatusCreated {
		t.Fatalf("create vehicle: status %d, resp %v", code, resp)
	}

	// Drop-off opens a task pending manager approval.
	code, resp = doJSON(t, r, http.MethodPost, "/api/checkins", customerToken, gin.H{
		"plate":             "12-345-67",
		"fault_description": "ברקסים",
		"mileage":           80000,
	})
	if code != http.StatusCreated {
		t.Fatalf("check-in: status %d, resp %v", code, resp)
	}
	taskID := resp["id"].(string)
	if resp["status"] != "WAITING_FOR_APPROVAL" {
		t.Errorf("status after check-in = %v, want WAITING_FOR_APPROVAL", resp["status"])
	}
	intake := resp["intake"].(map[string]interface{})
	if intake["kind"] != "CHECK_IN" {
		t.Errorf("intake kind = %v, want CHECK_IN", intake["kind"])
	}

	// Customers cannot approve their own tasks.
	code, _ = doJSON(t, r, http.MethodPost, "/api/tasks/"+taskID+"/approve", customerToken, gin.H{"send_now": true})
	if code != http.StatusForbidden {
		t.Errorf("customer approve: status %d, want 403", code)
	}

	// Manager approves straight into the work queue.
	code, resp = doJSON(t, r, http.MethodPost, "/api/tasks/"+taskID+"/approve", managerToken, gin.H{"send_now": true})
	if code != http.StatusOK {
		t.Fatalf("approve: status %d, resp %v", code, resp)
	}
	if resp["status"] != "WAITING" {
		t.Errorf("status after approve = %v, want WAITING", resp["status"])
	}

	// The customer is told about the approval.
	code, resp = doJSON(t, r, http.MethodGet, "/api/notifications", customerToken, nil)
	if code != http.StatusOK {
		t.Fatalf("list notifications: status %d", code)
	}
	items := resp["items"].([]interface{})
	found := false
	for _, it := range items {
		n := it.(map[string]interface{})
		if strings.Contains(n["title"].(string), "אושר") {
			found = true
		}
	}
	if !found {
		t.Errorf("no approval notification in %v", items)
	}

	// A new mechanic signs up and waits for membership approval.
	_, staffID := signup(t, r, garageCode, "רן", "054-1112233", "STAFF")
	code, resp = doJSON(t, r, http.MethodPost, "/api/login", "", gin.H{
		"phone":       "054-1112233",
		"password":    "hunter2pass",
		"garage_code": garageCode,
	})
	if code != http.StatusOK {
		t.Fatalf("staff login: status %d, resp %v", code, resp)
	}
	staffToken := resp["token"].(string)

	code, _ = doJSON(t, r, http.MethodGet, "/api/tasks", staffToken, nil)
	if code != http.StatusForbidden {
		t.Errorf("pending staff list tasks: status %d, want 403", code)
	}

	code, _ = doJSON(t, r, http.MethodPost, "/api/members/"+staffID+"/approve", managerToken, nil)
	if code != http.StatusOK {
		t.Fatalf("approve member: status %d", code)
	}

	// Approved mechanic sees the queue and takes the job.
	code, resp = doJSON(t, r, http.MethodGet, "/api/tasks", staffToken, nil)
	if code != http.StatusOK {
		t.Fatalf("staff list tasks: status %d", code)
	}
	if len(resp["items"].([]interface{})) != 1 {
		t.Errorf("staff sees %d tasks, want 1", len(resp["items"].([]interface{})))
	}

	code, resp = doJSON(t, r, http.MethodPost, "/api/tasks/"+taskID+"/claim", staffToken, nil)
	if code != http.StatusOK {
		t.Fatalf("claim: status %d, resp %v", code, resp)
	}
	if resp["status"] != "IN_PROGRESS" {
		t.Errorf("status after claim = %v, want IN_PROGRESS", resp["status"])
	}
	assigned := resp["assigned_to"].([]interface{})
	if len(assigned) != 1 || assigned[0] != staffID {
		t.Errorf("assigned_to = %v, want [%s]", assigned, staffID)
	}

	code, resp = doJSON(t, r, http.MethodPost, "/api/tasks/"+taskID+"/complete", staffToken, nil)
	if code != http.StatusOK {
		t.Fatalf("complete: status %d, resp %v", code, resp)
	}
	if resp["status"] != "COMPLETED" || resp["completed_at"] == nil {
		t.Errorf("completion = %v / %v, want COMPLETED with timestamp", resp["status"], resp["completed_at"])
	}

	// The public tracking page needs no token and shows the coarse phase.
	code, resp = doJSON(t, r, http.MethodGet, "/api/status/"+taskID, "", nil)
	if code != http.StatusOK {
		t.Fatalf("public status: status %d", code)
	}
	if resp["status"] != "COMPLETED" {
		t.Errorf("public bucket = %v, want COMPLETED", resp["status"])
	}
	v := resp["vehicle"].(map[string]interface{})
	if v["plate"] != "12-345-67" {
		t.Errorf("public plate = %v, want 12-345-67", v["plate"])
	}
	if _, leaked := v["immobilizer_code"]; leaked {
		t.Error("public status leaks immobilizer code")
	}
}

func TestAuth_MissingToken(t *testing.T) {
	r := newTestRouter(t)
	code, _ := doJSON(t, r, http.MethodGet, "/api/tasks", "", nil)
	if code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}

func TestAuth_GarbageToken(t *testing.T) {
	r := newTestRouter(t)
	code, _ := doJSON(t, r, http.MethodGet, "/api/tasks", "not-a-jwt", nil)
	if code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}

func TestSignup_UnknownGarageCode(t *testing.T) {
	r := newTestRouter(t)
	code, _ := doJSON(t, r, http.MethodPost, "/api/signup", "", gin.H{
		"garage_code": "NOPE99",
		"name":        "דנה",
		"phone":       "0537654321",
		"password":    "hunter2pass",
	})
	if code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}

func TestCustomer_CannotCreateManualTask(t *testing.T) {
	r := newTestRouter(t)
	_, garageCode := createOrg(t, r)
	customerToken, _ := signup(t, r, garageCode, "דנה", "053-7654321", "CUSTOMER")

	code, _ := doJSON(t, r, http.MethodPost, "/api/tasks", customerToken, gin.H{"title": "החלפת שמן"})
	if code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", code)
	}
}

func TestImmobilizerVisibility(t *testing.T) {
	r := newTestRouter(t)
	managerToken, garageCode := createOrg(t, r)
	customerToken, customerID := signup(t, r, garageCode, "דנה", "053-7654321", "CUSTOMER")

	code, resp := doJSON(t, r, http.MethodPost, "/api/vehicles", managerToken, gin.H{
		"plate":            "7654321",
		"owner_id":         customerID,
		"model":            "GOLF",
		"immobilizer_code": "4512",
	})
	if code != http.StatusCreated {
		t.Fatalf("create vehicle: status %d, resp %v", code, resp)
	}
	vehicleID := fmt.Sprintf("%d", int(resp["id"].(float64)))
	if resp["immobilizer_code"] != "4512" {
		t.Errorf("manager create response hides code: %v", resp)
	}

	// Owner sees the code.
	code, resp = doJSON(t, r, http.MethodGet, "/api/vehicles/"+vehicleID, customerToken, nil)
	if code != http.StatusOK {
		t.Fatalf("owner get vehicle: status %d", code)
	}
	if resp["immobilizer_code"] != "4512" {
		t.Errorf("owner cannot see immobilizer code: %v", resp)
	}

	// Unassigned staff do not.
	_, staffID := signup(t, r, garageCode, "רן", "054-1112233", "STAFF")
	if code, _ := doJSON(t, r, http.MethodPost, "/api/members/"+staffID+"/approve", managerToken, nil); code != http.StatusOK {
		t.Fatalf("approve member: status %d", code)
	}
	code, resp = doJSON(t, r, http.MethodPost, "/api/login", "", gin.H{
		"phone": "054-1112233", "password": "hunter2pass", "garage_code": garageCode,
	})
	if code != http.StatusOK {
		t.Fatalf("staff login: status %d", code)
	}
	staffToken := resp["token"].(string)

	code, resp = doJSON(t, r, http.MethodGet, "/api/vehicles/"+vehicleID, staffToken, nil)
	if code != http.StatusOK {
		t.Fatalf("staff get vehicle: status %d", code)
	}
	if _, ok := resp["immobilizer_code"]; ok {
		t.Errorf("unassigned staff sees immobilizer code: %v", resp)
	}

	// Another customer cannot open the vehicle at all.
	otherToken, _ := signup(t, r, garageCode, "אבי", "053-0000001", "CUSTOMER")
	code, _ = doJSON(t, r, http.MethodGet, "/api/vehicles/"+vehicleID, otherToken, nil)
	if code != http.StatusForbidden {
		t.Errorf("other customer get vehicle: status %d, want 403", code)
	}
}

func TestPublicStatus_CancelledDisappears(t *testing.T) {
	r := newTestRouter(t)
	managerToken, _ := createOrg(t, r)

	code, resp := doJSON(t, r, http.MethodPost, "/api/tasks", managerToken, gin.H{"title": "בדיקת חורף"})
	if code != http.StatusCreated {
		t.Fatalf("create task: status %d, resp %v", code, resp)
	}
	taskID := resp["id"].(string)

	code, resp = doJSON(t, r, http.MethodGet, "/api/status/"+taskID, "", nil)
	if code != http.StatusOK || resp["status"] != "WAITING" {
		t.Fatalf("public status = %d %v, want 200 WAITING", code, resp["status"])
	}

	if code, _ := doJSON(t, r, http.MethodPost, "/api/tasks/"+taskID+"/cancel", managerToken, nil); code != http.StatusOK {
		t.Fatalf("cancel: status %d", code)
	}
	if code, _ := doJSON(t, r, http.MethodGet, "/api/status/"+taskID, "", nil); code != http.StatusNotFound {
		t.Errorf("public status after cancel: status %d, want 404", code)
	}
}

func TestPatchTask_TerminalStatusesRejected(t *testing.T) {
	r := newTestRouter(t)
	managerToken, garageCode := createOrg(t, r)

	code, resp := doJSON(t, r, http.MethodPost, "/api/tasks", managerToken, gin.H{"title": "החלפת מצבר"})
	if code != http.StatusCreated {
		t.Fatalf("create task: status %d, resp %v", code, resp)
	}
	taskID := resp["id"].(string)

	_, staffID := signup(t, r, garageCode, "רן", "054-1112233", "STAFF")
	if code, _ := doJSON(t, r, http.MethodPost, "/api/members/"+staffID+"/approve", managerToken, nil); code != http.StatusOK {
		t.Fatalf("approve member: status %d", code)
	}
	code, resp = doJSON(t, r, http.MethodPost, "/api/login", "", gin.H{
		"phone": "054-1112233", "password": "hunter2pass", "garage_code": garageCode,
	})
	if code != http.StatusOK {
		t.Fatalf("staff login: status %d", code)
	}
	staffToken := resp["token"].(string)

	if code, _ := doJSON(t, r, http.MethodPost, "/api/tasks/"+taskID+"/claim", staffToken, nil); code != http.StatusOK {
		t.Fatalf("claim: status %d", code)
	}

	// Completion and cancellation notify the customer and stamp timestamps;
	// PATCH must not offer a side door around those endpoints.
	for _, status := range []string{"COMPLETED", "CANCELLED", "WAITING", "SCHEDULED", "WAITING_FOR_APPROVAL"} {
		code, _ := doJSON(t, r, http.MethodPatch, "/api/tasks/"+taskID, staffToken, gin.H{"status": status})
		if code != http.StatusBadRequest {
			t.Errorf("patch status %s: status %d, want 400", status, code)
		}
	}

	code, resp = doJSON(t, r, http.MethodPatch, "/api/tasks/"+taskID, staffToken, gin.H{"status": "PAUSED"})
	if code != http.StatusOK {
		t.Fatalf("patch status PAUSED: status %d, resp %v", code, resp)
	}
	if resp["status"] != "PAUSED" {
		t.Errorf("status after patch = %v, want PAUSED", resp["status"])
	}
}

func TestCustomerTaskScope(t *testing.T) {
	r := newTestRouter(t)
	managerToken, garageCode := createOrg(t, r)
	customerToken, customerID := signup(t, r, garageCode, "דנה", "053-7654321", "CUSTOMER")
	otherToken, _ := signup(t, r, garageCode, "אבי", "053-0000001", "CUSTOMER")

	code, resp := doJSON(t, r, http.MethodPost, "/api/tasks", managerToken, gin.H{
		"title":       "החלפת שמן",
		"customer_id": customerID,
	})
	if code != http.StatusCreated {
		t.Fatalf("create task: status %d, resp %v", code, resp)
	}
	taskID := resp["id"].(string)

	code, resp = doJSON(t, r, http.MethodGet, "/api/tasks", customerToken, nil)
	if code != http.StatusOK || len(resp["items"].([]interface{})) != 1 {
		t.Errorf("customer listing = %d %v, want their task", code, resp)
	}
	code, resp = doJSON(t, r, http.MethodGet, "/api/tasks", otherToken, nil)
	if code != http.StatusOK || len(resp["items"].([]interface{})) != 0 {
		t.Errorf("other customer listing = %d %v, want empty", code, resp)
	}
	if code, _ := doJSON(t, r, http.MethodGet, "/api/tasks/"+taskID, otherToken, nil); code != http.StatusForbidden {
		t.Errorf("other customer get task: status %d, want 403", code)
	}
}
