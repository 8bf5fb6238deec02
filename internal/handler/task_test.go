package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rlowe/countback/internal/database"
	"github.com/rlowe/countback/internal/store"
	"github.com/rlowe/countback/internal/tracker"
)

func setupManager(t *testing.T) *tracker.Manager {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	st := store.NewDocumentStore(db, slog.Default())
	m, err := tracker.NewManager(st, slog.Default())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func setupTaskHandler(t *testing.T) (*TaskHandler, *tracker.Manager) {
	t.Helper()
	m := setupManager(t)
	return NewTaskHandler(m, nil, slog.Default()), m
}

func routed(h *TaskHandler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tasks", h.List)
	mux.HandleFunc("POST /api/tasks", h.Create)
	mux.HandleFunc("POST /api/tasks/{id}/checkin", h.CheckIn)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.Delete)
	return mux
}

func TestCreateAndListTasks(t *testing.T) {
	h, _ := setupTaskHandler(t)
	mux := routed(h)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/api/tasks",
		strings.NewReader(`{"name": "Run", "days": "30"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", rec.Code, rec.Body)
	}

	var created struct {
		Task taskResponse `json:"task"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.Task.Name != "Run" || created.Task.RemainingDays != 30 {
		t.Errorf("task = %+v", created.Task)
	}
	if created.Task.DoneToday {
		t.Error("new task should not be done today")
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/tasks", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	var tasks []taskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != created.Task.ID {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestCreateTaskRejectsBadInput(t *testing.T) {
	h, m := setupTaskHandler(t)
	mux := routed(h)

	cases := []string{
		`{"name": "", "days": "30"}`,
		`{"name": "Run", "days": "abc"}`,
		`not json`,
	}
	for _, body := range cases {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/api/tasks", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q status = %d, want 400", body, rec.Code)
		}
	}
	if got := len(m.Document().Tasks); got != 0 {
		t.Errorf("task count = %d, want 0 after rejected creates", got)
	}
}

func TestCheckInFlow(t *testing.T) {
	h, m := setupTaskHandler(t)
	mux := routed(h)

	task, err := m.CreateTask("Run", "2")
	if err != nil {
		t.Fatalf("seed task: %v", err)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/api/tasks/"+task.ID+"/checkin", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("checkin status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Completed bool         `json:"completed"`
		Task      taskResponse `json:"task"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Completed {
		t.Fatal("first check-in should not complete a 2-day task")
	}
	if resp.Task.RemainingDays != 1 || !resp.Task.DoneToday {
		t.Errorf("task after check-in = %+v", resp.Task)
	}

	// Second check-in finishes it.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/api/tasks/"+task.ID+"/checkin", nil))
	var final struct {
		Completed   bool            `json:"completed"`
		Achievement json.RawMessage `json:"achievement"`
	}
	json.Unmarshal(rec.Body.Bytes(), &final)
	if !final.Completed {
		t.Fatal("second check-in should complete the task")
	}
	if len(final.Achievement) == 0 {
		t.Error("completion response should carry the achievement")
	}

	doc := m.Document()
	if len(doc.Tasks) != 0 || len(doc.Achievements) != 1 {
		t.Errorf("doc after completion = %d tasks, %d achievements", len(doc.Tasks), len(doc.Achievements))
	}
}

func TestCheckInUnknownTask(t *testing.T) {
	h, _ := setupTaskHandler(t)
	mux := routed(h)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/api/tasks/nope/checkin", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteTaskEndpoint(t *testing.T) {
	h, m := setupTaskHandler(t)
	mux := routed(h)

	task, _ := m.CreateTask("Run", "5")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/tasks/"+task.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", rec.Code)
	}
	if got := len(m.Document().Tasks); got != 0 {
		t.Errorf("task count = %d, want 0", got)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/tasks/"+task.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}
