package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rlowe/countback/internal/tracker"
	"github.com/rlowe/countback/internal/websocket"
)

type AchievementHandler struct {
	manager *tracker.Manager
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewAchievementHandler(m *tracker.Manager, hub *websocket.Hub, logger *slog.Logger) *AchievementHandler {
	return &AchievementHandler{manager: m, hub: hub, logger: logger}
}

func (h *AchievementHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

func (h *AchievementHandler) List(w http.ResponseWriter, r *http.Request) {
	doc := h.manager.Document()
	writeJSON(w, http.StatusOK, doc.Achievements)
}

type deleteAchievementRequest struct {
	Name string `json:"name"`
}

// Delete removes an achievement by position. Achievements have no id, so
// the request carries the expected name as a guard against a list that
// shifted since the client rendered it.
func (h *AchievementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid index"})
		return
	}

	var req deleteAchievementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	err = h.manager.DeleteAchievement(index, req.Name)
	if errors.Is(err, tracker.ErrAchievementNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "achievement not found"})
		return
	}

	h.broadcast(websocket.NewMessage("achievement", "deleted", req.Name, nil))

	writeJSON(w, http.StatusOK, withStorageWarning(map[string]any{"deleted": true}, err))
}
