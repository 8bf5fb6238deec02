package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rlowe/countback/internal/model"
	"github.com/rlowe/countback/internal/tracker"
	"github.com/rlowe/countback/internal/websocket"
)

type TaskHandler struct {
	manager *tracker.Manager
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewTaskHandler(m *tracker.Manager, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{manager: m, hub: hub, logger: logger}
}

func (h *TaskHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type taskResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	RemainingDays  int    `json:"days"`
	OriginalTarget int    `json:"original_target"`
	CreatedDate    string `json:"created_at"`
	DoneToday      bool   `json:"done_today"`
}

func toTaskResponse(t model.Task, today model.Date) taskResponse {
	return taskResponse{
		ID:             t.ID,
		Name:           t.Name,
		RemainingDays:  t.RemainingDays,
		OriginalTarget: t.OriginalTarget,
		CreatedDate:    t.CreatedDate.String(),
		DoneToday:      t.DoneOn(today),
	}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	doc := h.manager.Document()
	today := h.manager.Today()

	tasks := make([]taskResponse, 0, len(doc.Tasks))
	for _, t := range doc.Tasks {
		tasks = append(tasks, toTaskResponse(t, today))
	}
	writeJSON(w, http.StatusOK, tasks)
}

type createTaskRequest struct {
	Name string `json:"name"`
	Days string `json:"days"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	task, err := h.manager.CreateTask(req.Name, req.Days)
	if errors.Is(err, tracker.ErrInvalidInput) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	h.broadcast(websocket.NewMessage("task", "created", task.ID, nil))

	payload := map[string]any{"task": toTaskResponse(task, h.manager.Today())}
	writeJSON(w, http.StatusCreated, withStorageWarning(payload, err))
}

func (h *TaskHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	result, err := h.manager.CheckIn(id)
	if errors.Is(err, tracker.ErrTaskNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}

	if result.Completed {
		h.broadcast(websocket.NewMessage("task", "completed", id, map[string]any{
			"name": result.Achievement.Name,
		}))
		payload := map[string]any{
			"completed":   true,
			"achievement": result.Achievement,
		}
		writeJSON(w, http.StatusOK, withStorageWarning(payload, err))
		return
	}

	h.broadcast(websocket.NewMessage("task", "checked", id, nil))

	payload := map[string]any{
		"completed": false,
		"task":      toTaskResponse(result.Task, h.manager.Today()),
	}
	writeJSON(w, http.StatusOK, withStorageWarning(payload, err))
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := h.manager.DeleteTask(id)
	if errors.Is(err, tracker.ErrTaskNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}

	h.broadcast(websocket.NewMessage("task", "deleted", id, nil))

	writeJSON(w, http.StatusOK, withStorageWarning(map[string]any{"deleted": true}, err))
}
